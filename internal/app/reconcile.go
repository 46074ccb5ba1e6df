package app

import (
	"github.com/scala-steward/my-photo-timeline/internal/domain"
)

// Reconcile 对 toProcess 的每个 hash 桶做分类：
// - 桶的 hash 已存在于 processed：整桶都是已归档内容的副本 -> newDuplicate
// - 否则：桶首（发现顺序第一条）是代表 -> newUnique；桶内其余 -> newDuplicate
//
// “发现顺序第一条获胜”是唯一的决胜规则；不参考大小/名称/修改时间。
// 两个索引都不被修改；合并（用于汇总计数）由调用方显式执行。
func Reconcile(processed, toProcess *domain.ContentIndex) (newUnique, newDuplicate []domain.FileRecord) {
	newUnique = make([]domain.FileRecord, 0, toProcess.Len())
	newDuplicate = make([]domain.FileRecord, 0, 16)

	for _, h := range toProcess.Hashes() {
		bucket := toProcess.Bucket(h)
		if processed.Has(h) {
			newDuplicate = append(newDuplicate, bucket...)
			continue
		}
		newUnique = append(newUnique, bucket[0])
		newDuplicate = append(newDuplicate, bucket[1:]...)
	}
	return newUnique, newDuplicate
}
