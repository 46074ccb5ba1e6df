package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// Class 取值：每个被发现的文件恰好归入一类。
const (
	ClassOrganized = "organized" // newUnique：进入日期归档树
	ClassDuplicate = "duplicate" // newDuplicate：移入 duplicated/
	ClassInvalid   = "invalid"   // 元数据不足：移入 invalid/
	ClassFailed    = "failed"    // 运行级失败（配置/扫描），合成条目
)

const (
	FileStatusPlanned = "planned" // dry-run：只规划不执行
	FileStatusMoved   = "moved"
	FileStatusFailed  = "failed" // 单文件移动失败；源文件保持原位
)

const (
	ErrCodeIOFailed   = "io_failed"
	ErrCodeMoveFailed = "move_failed"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	Source string `json:"source"`
	Target string `json:"target"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []FileOutcome `json:"items"`
}

type ReportSummary struct {
	// 索引级计数（由 run 在 reconcile 后填入）。
	Scanned          int `json:"scanned"`           // 源目录被发现的媒体文件数（含 invalid）
	AlreadyOrganized int `json:"already_organized"` // 归档区已有记录数
	UniqueTotal      int `json:"unique_total"`      // 合并索引的不同 hash 数

	// 条目级计数（由 Finalize 从 items 推导）。
	NewUnique     int `json:"new_unique"`
	NewDuplicates int `json:"new_duplicates"`
	Invalid       int `json:"invalid"`
	Moved         int `json:"moved"`
	MoveFailed    int `json:"move_failed"`
	Failed        int `json:"failed"` // 运行级合成失败条目数
}

// FileOutcome 是单个文件的分类与执行结果。
type FileOutcome struct {
	Src   string `json:"src"` // 相对源根；合成条目为空
	Dst   string `json:"dst"` // 相对目标根；dry-run 下为规划目标
	Class string `json:"class"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 Src 字典序；Src=="" 的合成条目排在最后
// 3) summary 的条目级计数由 items 计算得出（索引级计数保持 run 填入的值）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Src
		b := r.Items[j].Src
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	r.Summary.NewUnique = 0
	r.Summary.NewDuplicates = 0
	r.Summary.Invalid = 0
	r.Summary.Moved = 0
	r.Summary.MoveFailed = 0
	r.Summary.Failed = 0
	for _, it := range r.Items {
		switch it.Class {
		case ClassOrganized:
			r.Summary.NewUnique++
		case ClassDuplicate:
			r.Summary.NewDuplicates++
		case ClassInvalid:
			r.Summary.Invalid++
		case ClassFailed:
			r.Summary.Failed++
		}
		switch it.Status {
		case FileStatusMoved:
			r.Summary.Moved++
		case FileStatusFailed:
			if it.Class != ClassFailed {
				r.Summary.MoveFailed++
			}
		}
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
