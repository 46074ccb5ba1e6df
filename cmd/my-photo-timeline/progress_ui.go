package main

import (
	"fmt"
	"io"
	"time"

	"github.com/scala-steward/my-photo-timeline/internal/app/run"
	"github.com/scala-steward/my-photo-timeline/internal/config"
	"github.com/scala-steward/my-photo-timeline/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 加载进度节流到 5% 阈值：跨越阈值才输出一行，且首个文件之后才开始
// - run 层只发事件，展示策略全部在这里
type progressUI struct {
	w     io.Writer
	debug bool

	// 每个根目录独立节流（先归档区后源目录，两次加载）。
	lastRoot string
	lastPct  int
}

func newProgressUI(w io.Writer, debug bool) *progressUI {
	return &progressUI{w: w, debug: debug, lastPct: -1}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	mode := "dry-run"
	modeHint := " (不移动/不删除)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] my-photo-timeline run (%s)\n", time.Now().Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  source: %s\n", eff.Source)
	fmt.Fprintf(p.w, "  target: %s\n", eff.Target)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	if len(eff.ExcludeDirs) > 0 {
		fmt.Fprintf(p.w, "  exclude_dirs: %v\n", eff.ExcludeDirs)
	}
	if eff.UseFileTimes {
		fmt.Fprintln(p.w, "  use_file_times: on")
	}
	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  organized: %s\n", eff.Organized)
	fmt.Fprintf(p.w, "  duplicated: %s\n", eff.Duplicated)
	fmt.Fprintf(p.w, "  invalid: %s\n", eff.Invalid)
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnLoadProgress(root string, done, total int) {
	if total == 0 || done == 0 {
		return
	}
	if root != p.lastRoot {
		p.lastRoot = root
		p.lastPct = -1
	}

	// 节流：只在跨越 5% 阈值时输出，避免刷屏。
	pct := done * 100 / total
	if pct/5 == p.lastPct/5 && p.lastPct >= 0 {
		return
	}
	p.lastPct = pct
	fmt.Fprintf(p.w, "  加载 %s: %d/%d (%d%%)\n", root, done, total, pct)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	switch name {
	case "load-organized":
		fmt.Fprintf(p.w, "归档区: files=%d invalid=%d (%s)\n",
			intField(fields, "files"), intField(fields, "invalid"), formatShortDuration(dur))
	case "load-source":
		fmt.Fprintf(p.w, "源目录: files=%d invalid=%d (%s)\n",
			intField(fields, "files"), intField(fields, "invalid"), formatShortDuration(dur))
	case "reconcile":
		fmt.Fprintf(p.w, "对账: unique_total=%d already_organized=%d new_unique=%d new_duplicates=%d invalid=%d (%s)\n",
			intField(fields, "unique_total"),
			intField(fields, "already_organized"),
			intField(fields, "new_unique"),
			intField(fields, "new_duplicates"),
			intField(fields, "invalid"),
			formatShortDuration(dur),
		)
	case "cleanup":
		fmt.Fprintf(p.w, "清理: removed_source=%d removed_organized=%d (%s)\n",
			intField(fields, "removed_source"), intField(fields, "removed_organized"), formatShortDuration(dur))
	}
}

func (p *progressUI) OnFileDone(idx, total int, res domain.FileOutcome, dur time.Duration) {
	// 失败永远输出；其余明细只在 --debug 下输出。
	if res.Status == domain.FileStatusFailed {
		fmt.Fprintf(p.w, "[%d/%d] %s %s -> %s: %s\n", idx, total, res.Class, res.Src, res.Dst, res.ErrorMsg)
		return
	}
	if !p.debug {
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] %s %s -> %s (%s)\n", idx, total, res.Class, res.Src, res.Dst, res.Status)
}

var _ run.Observer = (*planSummaryLogger)(nil)

// planSummaryLogger 是非交互模式的最小 Observer：
// 只在 reconcile 阶段输出一行汇总——计数必须在任何移动发生之前可见。
type planSummaryLogger struct {
	w io.Writer
}

func (l *planSummaryLogger) OnStart(config.EffectiveConfig) {}

func (l *planSummaryLogger) OnLoadProgress(string, int, int) {}

func (l *planSummaryLogger) OnPhaseDone(name string, fields map[string]any, _ time.Duration) {
	if name != "reconcile" {
		return
	}
	fmt.Fprintf(l.w, "对账: unique_total=%d already_organized=%d new_unique=%d new_duplicates=%d invalid=%d\n",
		intField(fields, "unique_total"),
		intField(fields, "already_organized"),
		intField(fields, "new_unique"),
		intField(fields, "new_duplicates"),
		intField(fields, "invalid"),
	)
}

func (l *planSummaryLogger) OnFileDone(int, int, domain.FileOutcome, time.Duration) {}

func intField(fields map[string]any, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	n, ok := v.(int)
	if !ok {
		return 0
	}
	return n
}

func formatShortDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
