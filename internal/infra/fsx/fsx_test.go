package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeMoveInto_CreatesDirAndPreservesName(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.jpg")
	write(t, src, "photo")

	dstDir := filepath.Join(root, "out", "2020", "2020-05")
	dst, err := SafeMoveInto(dstDir, src)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if dst != filepath.Join(dstDir, "a.jpg") {
		t.Fatalf("目标路径不正确：%q", dst)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("源文件应已被移走：%v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil || string(b) != "photo" {
		t.Fatalf("目标内容不正确：%q %v", string(b), err)
	}
}

func TestSafeMoveInto_CollisionGetsSuffix(t *testing.T) {
	root := t.TempDir()
	dstDir := filepath.Join(root, "out")
	write(t, filepath.Join(dstDir, "a.jpg"), "old")

	src := filepath.Join(root, "a.jpg")
	write(t, src, "new")

	dst, err := SafeMoveInto(dstDir, src)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if dst != filepath.Join(dstDir, "a__2.jpg") {
		t.Fatalf("冲突时应追加 __2 后缀：%q", dst)
	}

	// 已有文件绝不被覆盖。
	b, _ := os.ReadFile(filepath.Join(dstDir, "a.jpg"))
	if string(b) != "old" {
		t.Fatalf("已有文件被覆盖：%q", string(b))
	}
}

func TestSafeMoveInto_RenameFailLeavesSource(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.jpg")
	write(t, src, "photo")

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return os.ErrPermission
	}
	defer func() { renameFunc = old }()

	if _, err := SafeMoveInto(filepath.Join(root, "out"), src); err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("移动失败时源文件必须保持原位：%v", err)
	}
}

func TestAllocName_SkipsUsedSuffixes(t *testing.T) {
	used := map[string]struct{}{
		"a.jpg":    {},
		"a__2.jpg": {},
	}
	if got := allocName("a.jpg", used); got != "a__3.jpg" {
		t.Fatalf("期望 a__3.jpg，实际 %q", got)
	}
	if got := allocName("b.jpg", used); got != "b.jpg" {
		t.Fatalf("无冲突时必须保留原名，实际 %q", got)
	}
}

func TestEnsureDir_FileConflict(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "out")
	write(t, p, "x")

	err := EnsureDir(p)
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}

func TestCleanEmptyDirs_BottomUpAndKeepsRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "b", "c"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	write(t, filepath.Join(root, "keep", "x.jpg"), "x")

	removed, err := CleanEmptyDirs(root)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if removed != 3 {
		t.Fatalf("期望删除 3 个空目录，实际 %d", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "a")); !os.IsNotExist(err) {
		t.Fatalf("a/ 应被删除：%v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "keep", "x.jpg")); err != nil {
		t.Fatalf("非空目录不应被动过：%v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root 永不删除：%v", err)
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
