package run

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scala-steward/my-photo-timeline/internal/app"
	"github.com/scala-steward/my-photo-timeline/internal/app/planner"
	"github.com/scala-steward/my-photo-timeline/internal/config"
	"github.com/scala-steward/my-photo-timeline/internal/domain"
	"github.com/scala-steward/my-photo-timeline/internal/infra/fsx"
)

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 运行级失败（布局校验、根目录扫描）降级为合成 failed 条目；
// 单文件失败（元数据/移动）绝不中断整个运行（除非配置了 abort_on_move_error）。
func Execute(eff config.EffectiveConfig, x app.MetadataExtractor) domain.RunReport {
	return ExecuteWithObserver(eff, x, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息。
//
// 顺序（固定）：校验布局 -> 加载归档区索引 -> 加载源索引 -> reconcile ->
// 发布汇总计数 -> （非 dry-run）移动 duplicate/invalid/unique -> 清理空目录。
// 所有步骤同步顺序执行；不重试，不加锁（假定对两棵目录树独占访问）。
func ExecuteWithObserver(eff config.EffectiveConfig, x app.MetadataExtractor, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Source:    eff.Source,
		Target:    eff.Target,
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.FileOutcome, 0, 128),
	}

	if err := config.EnsureLayout(eff); err != nil {
		return finish(&rr, syntheticFailed(config.Code(err), err.Error()))
	}

	// 归档区索引：每次运行从 organized/ 重新扫描推导，工具自身不持久化任何状态。
	loadStarted := time.Now()
	processed, organizedInvalid, err := loadIndex(eff.Organized, nil, x, obs)
	if err != nil {
		return finish(&rr, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描归档区失败：%v", err)))
	}
	if obs != nil {
		obs.OnPhaseDone("load-organized", map[string]any{
			"files":   processed.Files(),
			"invalid": len(organizedInvalid),
		}, time.Since(loadStarted))
	}

	loadStarted = time.Now()
	toProcess, invalid, err := loadIndex(eff.Source, eff.ExcludeDirs, x, obs)
	if err != nil {
		return finish(&rr, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描源目录失败：%v", err)))
	}
	if obs != nil {
		obs.OnPhaseDone("load-source", map[string]any{
			"files":   toProcess.Files(),
			"invalid": len(invalid),
		}, time.Since(loadStarted))
	}

	reconcileStarted := time.Now()
	alreadyOrganized := processed.Files()
	newUnique, newDuplicate := app.Reconcile(processed, toProcess)

	// 合并索引只用于汇总计数。
	processed.Merge(toProcess)

	rr.Summary.Scanned = toProcess.Files() + len(invalid)
	rr.Summary.AlreadyOrganized = alreadyOrganized
	rr.Summary.UniqueTotal = processed.Len()

	// 汇总计数必须在任何移动之前发布：dry-run 与真实运行输出一致的诊断。
	if obs != nil {
		obs.OnPhaseDone("reconcile", map[string]any{
			"unique_total":      processed.Len(),
			"already_organized": alreadyOrganized,
			"new_unique":        len(newUnique),
			"new_duplicates":    len(newDuplicate),
			"invalid":           len(invalid),
		}, time.Since(reconcileStarted))
	}

	// 分类 -> 规划条目。dry-run 下 Dst 是规划目标（冲突后缀在真实移动时才分配）。
	items := make([]domain.FileOutcome, 0, len(newUnique)+len(newDuplicate)+len(invalid))
	for _, rec := range newDuplicate {
		items = append(items, domain.FileOutcome{
			Src:    rec.RelPath,
			Dst:    relToTarget(eff, filepath.Join(eff.Duplicated, filepath.Base(rec.Source))),
			Class:  domain.ClassDuplicate,
			Status: domain.FileStatusPlanned,
		})
	}
	for _, abs := range invalid {
		items = append(items, domain.FileOutcome{
			Src:    relToSource(eff, abs),
			Dst:    relToTarget(eff, filepath.Join(eff.Invalid, filepath.Base(abs))),
			Class:  domain.ClassInvalid,
			Status: domain.FileStatusPlanned,
		})
	}
	for _, rec := range newUnique {
		dstDir := planner.DestinationFor(eff.Organized, rec.CreatedOn)
		items = append(items, domain.FileOutcome{
			Src:    rec.RelPath,
			Dst:    relToTarget(eff, filepath.Join(dstDir, filepath.Base(rec.Source))),
			Class:  domain.ClassOrganized,
			Status: domain.FileStatusPlanned,
		})
	}

	if !eff.Apply {
		// dry-run：条目保持 planned，零移动、零目录删除。
		for i := range items {
			if obs != nil {
				obs.OnFileDone(i+1, len(items), items[i], 0)
			}
		}
		rr.Items = append(rr.Items, items...)
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	moveAll(eff, items, newUnique, newDuplicate, invalid, obs)
	rr.Items = append(rr.Items, items...)

	cleanupStarted := time.Now()
	removedSource, _ := fsx.CleanEmptyDirs(eff.Source)
	removedOrganized, _ := fsx.CleanEmptyDirs(eff.Organized)
	if obs != nil {
		obs.OnPhaseDone("cleanup", map[string]any{
			"removed_source":    removedSource,
			"removed_organized": removedOrganized,
		}, time.Since(cleanupStarted))
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// moveAll 按 items 的顺序执行移动：duplicate -> invalid -> unique。
// 单文件失败：标记 failed、源文件保持原位、继续下一个；
// abort_on_move_error 开启时中止后续移动（剩余条目保持 planned）。
func moveAll(eff config.EffectiveConfig, items []domain.FileOutcome, newUnique, newDuplicate []domain.FileRecord, invalid []string, obs Observer) {
	srcs := make([]string, 0, len(items))
	dstDirs := make([]string, 0, len(items))
	for _, rec := range newDuplicate {
		srcs = append(srcs, rec.Source)
		dstDirs = append(dstDirs, eff.Duplicated)
	}
	for _, abs := range invalid {
		srcs = append(srcs, abs)
		dstDirs = append(dstDirs, eff.Invalid)
	}
	for _, rec := range newUnique {
		srcs = append(srcs, rec.Source)
		dstDirs = append(dstDirs, planner.DestinationFor(eff.Organized, rec.CreatedOn))
	}

	for i := range items {
		moveStarted := time.Now()
		dst, err := fsx.SafeMoveInto(dstDirs[i], srcs[i])
		if err != nil {
			items[i].Status = domain.FileStatusFailed
			items[i].ErrorCode = domain.ErrCodeMoveFailed
			items[i].ErrorMsg = err.Error()
		} else {
			items[i].Status = domain.FileStatusMoved
			items[i].Dst = relToTarget(eff, dst)
		}
		if obs != nil {
			obs.OnFileDone(i+1, len(items), items[i], time.Since(moveStarted))
		}
		if err != nil && eff.AbortOnMoveError {
			return
		}
	}
}

// loadIndex 加载一个根目录的索引；根目录不存在视为空索引（dry-run 下目标子目录可能尚未创建）。
func loadIndex(root string, excludeGlobs []string, x app.MetadataExtractor, obs Observer) (*domain.ContentIndex, []string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return domain.NewContentIndex(), nil, nil
	}

	var progress app.ProgressFunc
	if obs != nil {
		progress = func(done, total int) { obs.OnLoadProgress(root, done, total) }
	}
	return app.Load(root, excludeGlobs, x, progress)
}

func syntheticFailed(code, msg string) domain.FileOutcome {
	return domain.FileOutcome{
		Src:       "",
		Dst:       "",
		Class:     domain.ClassFailed,
		Status:    domain.FileStatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

func finish(rr *domain.RunReport, it domain.FileOutcome) domain.RunReport {
	rr.Items = append(rr.Items, it)
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return *rr
}

func relToSource(eff config.EffectiveConfig, abs string) string {
	if rel, err := filepath.Rel(eff.Source, abs); err == nil {
		return rel
	}
	return abs
}

func relToTarget(eff config.EffectiveConfig, abs string) string {
	if rel, err := filepath.Rel(eff.Target, abs); err == nil {
		return rel
	}
	return abs
}
