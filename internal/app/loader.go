package app

import (
	"time"

	"github.com/scala-steward/my-photo-timeline/internal/domain"
	"github.com/scala-steward/my-photo-timeline/internal/scan"
)

// MetadataExtractor 是 Load 消费的提取接口：
// 返回 (hash, createdOn)；任何错误都表示该文件元数据不可用。
type MetadataExtractor interface {
	Extract(path string) (domain.Hash, time.Time, error)
}

// ProgressFunc 在每个文件处理完成后收到 (done, total)。
// 纯旁路通道：节流与展示由调用方决定，不影响控制流。
type ProgressFunc func(done, total int)

// Load 扫描 root 并构建内容索引。
//
// - 遍历顺序固定（RelPath 字典序），因此桶内顺序跨运行可复现
// - 提取失败的文件以绝对路径进入 invalid，并被排除在所有去重推理之外
// - 单文件失败不致命；root 本身无法遍历才返回错误
// - 本步骤不做任何文件系统写入
func Load(root string, excludeGlobs []string, x MetadataExtractor, progress ProgressFunc) (*domain.ContentIndex, []string, error) {
	files, err := scan.ScanMedia(root, excludeGlobs)
	if err != nil {
		return nil, nil, err
	}

	ix := domain.NewContentIndex()
	invalid := make([]string, 0, 8)
	for i := range files {
		h, created, err := x.Extract(files[i].AbsPath)
		if err != nil {
			invalid = append(invalid, files[i].AbsPath)
		} else {
			ix.Add(domain.FileRecord{
				Source:    files[i].AbsPath,
				RelPath:   files[i].RelPath,
				Hash:      h,
				CreatedOn: created,
			})
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}
	return ix, invalid, nil
}
