package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/scala-steward/my-photo-timeline/internal/domain"
)

// mediaExts 是参与归档的媒体扩展名（照片 + 视频）。
// 其余文件一律忽略：既不归档，也不算 invalid。
var mediaExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".heic": true,
	".hif":  true,
	".dng":  true,
	".arw":  true,
	".cr2":  true,
	".nef":  true,
	".raf":  true,
	".tiff": true,
	".webp": true,
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
}

// ScanMedia 扫描 root 下的媒体文件，返回按 RelPath 字典序排序的结果。
//
// 规则（硬约束）：
// - 隐藏文件与隐藏目录（"." 前缀）一律跳过
// - excludeGlobs 来自配置文件，按 doublestar 语法匹配相对 root 的 slash 路径
// - 扫描阶段不读文件内容
//
// root 本身无法遍历属于致命错误，由调用方中止本次运行。
func ScanMedia(root string, excludeGlobs []string) ([]domain.MediaFile, error) {
	root = filepath.Clean(root)

	files := make([]domain.MediaFile, 0, 128)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if path == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if isExcluded(rel, excludeGlobs) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !mediaExts[ext] {
			return nil
		}

		files = append(files, domain.MediaFile{
			AbsPath: path,
			RelPath: rel,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出：桶内顺序、unique/duplicate 判定都依赖固定的发现顺序。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func isExcluded(rel string, excludeGlobs []string) bool {
	if len(excludeGlobs) == 0 {
		return false
	}
	slash := filepath.ToSlash(rel)
	for _, pat := range excludeGlobs {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		// 非法 pattern 在配置加载阶段已被拒绝；这里按不匹配处理。
		if ok, err := doublestar.Match(pat, slash); err == nil && ok {
			return true
		}
	}
	return false
}

// ValidGlob 校验 doublestar pattern 是否合法（供配置层提前拒绝）。
func ValidGlob(pat string) bool {
	return doublestar.ValidatePattern(pat)
}
