package domain

// ContentIndex 是去重索引：content hash -> 按发现顺序排列的非空桶。
//
// 约束：
// - 每个 FileRecord 恰好通过一个 hash 键可达
// - 桶内顺序 = 构建索引时的发现顺序（固定遍历顺序下是确定性的）
// - 键的遍历顺序（Hashes）= 首次插入顺序，不依赖 map 的随机遍历
type ContentIndex struct {
	buckets map[Hash][]FileRecord
	order   []Hash
}

func NewContentIndex() *ContentIndex {
	return &ContentIndex{
		buckets: make(map[Hash][]FileRecord, 128),
		order:   make([]Hash, 0, 128),
	}
}

// Add 把一条记录追加到其 hash 对应的桶尾。
func (ix *ContentIndex) Add(rec FileRecord) {
	ix.AddBucket(rec.Hash, []FileRecord{rec})
}

// AddBucket 是合并原语：把一组同 hash 的记录追加到已有桶尾（保持先前顺序），
// hash 不存在则新建桶。
func (ix *ContentIndex) AddBucket(h Hash, recs []FileRecord) {
	if len(recs) == 0 {
		return
	}
	if _, ok := ix.buckets[h]; !ok {
		ix.order = append(ix.order, h)
	}
	ix.buckets[h] = append(ix.buckets[h], recs...)
}

// Merge 把 other 的所有桶按其键顺序折叠进 ix（逐桶 AddBucket）。
func (ix *ContentIndex) Merge(other *ContentIndex) {
	for _, h := range other.order {
		ix.AddBucket(h, other.buckets[h])
	}
}

func (ix *ContentIndex) Has(h Hash) bool {
	_, ok := ix.buckets[h]
	return ok
}

func (ix *ContentIndex) Bucket(h Hash) []FileRecord {
	return ix.buckets[h]
}

// Hashes 返回首次插入顺序的键序列。调用方不得修改返回的切片。
func (ix *ContentIndex) Hashes() []Hash {
	return ix.order
}

// Len 返回不同 hash 的数量（即“内容唯一”的文件数）。
func (ix *ContentIndex) Len() int {
	return len(ix.order)
}

// Files 返回索引内记录总数。
func (ix *ContentIndex) Files() int {
	n := 0
	for _, b := range ix.buckets {
		n += len(b)
	}
	return n
}
