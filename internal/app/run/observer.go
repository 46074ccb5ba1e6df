package run

import (
	"time"

	"github.com/scala-steward/my-photo-timeline/internal/config"
	"github.com/scala-steward/my-photo-timeline/internal/domain"
)

// Observer 用于把“运行进度/阶段/单文件结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 执行是单线程顺序的，事件按发生顺序到达；节流（例如 5% 阈值）由实现方决定
// - 事件是 fire-and-forget 旁路通道，对控制流零影响
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnLoadProgress 在加载某个根目录时按文件调用：(done, total)。
	OnLoadProgress(root string, done, total int)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	// 汇总计数在任何移动发生之前通过 "reconcile" 阶段发布。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnFileDone 在某个文件分类/移动完成时调用（dry-run 下 status=planned）。
	OnFileDone(idx, total int, res domain.FileOutcome, dur time.Duration)
}
