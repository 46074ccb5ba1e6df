package meta

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExtract_FilenameDate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_20200619_123456.jpg")
	write(t, path, "not really a jpeg")

	x := Extractor{}
	h, created, err := x.Extract(path)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if h == "" {
		t.Fatalf("hash 不能为空")
	}
	want := time.Date(2020, 6, 19, 0, 0, 0, 0, time.UTC)
	if !created.Equal(want) {
		t.Fatalf("期望 createdOn=%v，实际=%v", want, created)
	}
}

func TestExtract_FilenameDatePriority(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"DJI_20250619224111_0001_D.MP4", "2025-06-19"},
		{"20250616_C0416.MP4", "2025-06-16"},
		{"2025-06-19_photo.jpg", "2025-06-19"},
		{"20250619_photo.jpg", "2025-06-19"},
	}
	for _, c := range cases {
		got, ok := filenameDate(c.name)
		if !ok {
			t.Fatalf("%q 应能解析出日期", c.name)
		}
		if got.Format("2006-01-02") != c.want {
			t.Fatalf("%q 期望 %s，实际 %s", c.name, c.want, got.Format("2006-01-02"))
		}
	}
}

func TestExtract_InsufficientMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holiday.jpg")
	write(t, path, "no exif, no date in name")

	x := Extractor{}
	_, _, err := x.Extract(path)
	if err == nil {
		t.Fatalf("期望 InsufficientMetadataError，但得到 nil")
	}
	if !IsInsufficientMetadata(err) {
		t.Fatalf("期望 InsufficientMetadataError，实际：%T %v", err, err)
	}
}

func TestExtract_UseFileTimesFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holiday.jpg")
	write(t, path, "no exif, no date in name")

	x := Extractor{UseFileTimes: true}
	_, created, err := x.Extract(path)
	if err != nil {
		t.Fatalf("开启 use_file_times 后不期望错误：%v", err)
	}
	if created.IsZero() {
		t.Fatalf("createdOn 不能为零值")
	}
}

func TestExtract_UnreadableFile(t *testing.T) {
	dir := t.TempDir()

	x := Extractor{}
	_, _, err := x.Extract(filepath.Join(dir, "nope.jpg"))
	if err == nil {
		t.Fatalf("不可读文件必须返回错误")
	}
	if IsInsufficientMetadata(err) {
		t.Fatalf("不可读与元数据不足是两类错误：%v", err)
	}
}

func TestHashFile_SameContentSameHash(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "IMG_20200101_000000_a.jpg")
	b := filepath.Join(dir, "IMG_20210101_000000_b.jpg")
	write(t, a, "identical bytes")
	write(t, b, "identical bytes")

	ha, err := hashFile(a)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	hb, err := hashFile(b)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ha != hb {
		t.Fatalf("相同内容必须得到相同 hash：%s != %s", ha, hb)
	}

	c := filepath.Join(dir, "c.jpg")
	write(t, c, "different bytes")
	hc, _ := hashFile(c)
	if hc == ha {
		t.Fatalf("不同内容不应得到相同 hash")
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
