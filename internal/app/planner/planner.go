package planner

import (
	"path/filepath"
	"time"
)

// DestinationFor 计算拍摄时间对应的归档目录：<organizedRoot>/YYYY/YYYY-MM。
//
// 约束：
// - 同一 createdOn 永远映射到同一目录（幂等的前提）
// - 粒度是放置策略而非正确性不变量；当前取年/月
func DestinationFor(organizedRoot string, createdOn time.Time) string {
	return filepath.Join(organizedRoot, createdOn.Format("2006"), createdOn.Format("2006-01"))
}
