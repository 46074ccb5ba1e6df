package meta

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/djherbis/times"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/scala-steward/my-photo-timeline/internal/domain"
)

// InsufficientMetadataError 表示文件可读，但提取不出可用的拍摄时间。
// 上层把这类文件归入 invalid 列表，并排除在所有去重推理之外。
type InsufficientMetadataError struct {
	Path string
}

func (e *InsufficientMetadataError) Error() string {
	return fmt.Sprintf("元数据不足：%q 没有可用的拍摄时间", e.Path)
}

func IsInsufficientMetadata(err error) bool {
	var e *InsufficientMetadataError
	return errors.As(err, &e)
}

// Extractor 从单个文件提取内容摘要与拍摄时间。
//
// 拍摄时间优先级：EXIF DateTimeOriginal > 文件名日期 > （可选）文件系统时间。
// UseFileTimes 默认关闭：开启后任何文件都能得到时间，invalid 分类将不可达。
type Extractor struct {
	UseFileTimes bool
}

// Extract 返回 (hash, createdOn)。
// 文件不可读返回底层 I/O 错误；缺少拍摄时间返回 *InsufficientMetadataError。
// 两者对上层都是单文件级可恢复错误（该文件进入 invalid）。
func (x Extractor) Extract(path string) (domain.Hash, time.Time, error) {
	h, err := hashFile(path)
	if err != nil {
		return "", time.Time{}, err
	}

	if t, err := exifDate(path); err == nil {
		return h, t, nil
	}
	if t, ok := filenameDate(path); ok {
		return h, t, nil
	}
	if x.UseFileTimes {
		if t, ok := fileTimesDate(path); ok {
			return h, t, nil
		}
	}
	return "", time.Time{}, &InsufficientMetadataError{Path: path}
}

// hashFile 计算全文件 SHA-256（十六进制小写）。
func hashFile(path string) (domain.Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return domain.Hash(hex.EncodeToString(h.Sum(nil))), nil
}

func exifDate(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}
	return x.DateTime()
}

// datePatterns 按顺序尝试；第一个命中的 pattern 生效。
// layout 使用 Go 的参考时间：Mon Jan 2 15:04:05 MST 2006。
var datePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	// DJI 无人机：DJI_20250619224111_0001_D.MP4
	{regexp.MustCompile(`DJI_(\d{8})`), "20060102"},
	// Sony 视频：20250616_C0416.MP4
	{regexp.MustCompile(`^(\d{8})_C\d+`), "20060102"},
	// 通用时间戳：IMG_20250619_123456.jpg
	{regexp.MustCompile(`(\d{8})_\d{6}`), "20060102"},
	// ISO 日期：2025-06-19_photo.jpg
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},
	// 紧凑日期（最后手段）：20250619_photo.jpg
	{regexp.MustCompile(`(\d{8})`), "20060102"},
}

func filenameDate(path string) (time.Time, bool) {
	name := filepath.Base(path)
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		t, err := time.Parse(p.layout, m[1])
		if err != nil {
			continue
		}
		// 全零或越界的垃圾日期按不命中处理（例如 "00000000"）。
		if t.Year() < 1900 || t.Year() > 2200 {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// fileTimesDate 用文件系统时间兜底：优先 birth time，退化为 mtime。
func fileTimesDate(path string) (time.Time, bool) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	if ts.HasBirthTime() {
		return ts.BirthTime(), true
	}
	return ts.ModTime(), true
}
