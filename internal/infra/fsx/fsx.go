package fsx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// 通过可替换的函数指针，让测试能稳定模拟 EXDEV 等错误。
var renameFunc = os.Rename

// PathTypeConflictError 表示目标路径类型冲突（例如期望目录但实际是文件）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// 遇到 EXDEV 必须失败并提示用户，不做 copy+delete：移动要么完整成功，要么源文件原封不动。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘移动失败（EXDEV）：%q -> %q；请确保源与目标在同一文件系统（本工具不会隐式 copy+delete）：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 os.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// SafeMoveInto 把 src 移入 dstDir：
// - dstDir 不存在则创建
// - 保留原文件名；命名冲突时追加 __N 后缀，绝不静默覆盖
// - rename 是唯一的移动手段：失败时源文件保持原位
// 返回最终目标的绝对路径。
func SafeMoveInto(dstDir, src string) (string, error) {
	dstDir = filepath.Clean(dstDir)
	if err := EnsureDir(dstDir); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dstDir)
	if err != nil {
		return "", err
	}
	used := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		used[e.Name()] = struct{}{}
	}

	dst := filepath.Join(dstDir, allocName(filepath.Base(src), used))
	if err := Rename(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// allocName 在 used 集内分配不冲突的文件名（冲突时追加 __N）。
func allocName(name string, used map[string]struct{}) string {
	if _, ok := used[name]; !ok {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 2; ; n++ {
		cand := fmt.Sprintf("%s__%d%s", base, n, ext)
		if _, ok := used[cand]; !ok {
			return cand
		}
	}
}

// EnsureDir 保证 dir 存在且是目录；路径被文件占用返回 PathTypeConflictError。
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// CleanEmptyDirs 自底向上删除 root 下的空目录；root 本身永不删除。
// 只用 os.Remove（非空目录删除会失败），保证绝不误删数据。
func CleanEmptyDirs(root string) (int, error) {
	root = filepath.Clean(root)

	dirs := make([]string, 0, 32)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// 倒序字典序保证先处理子目录再处理父目录。
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

	removed := 0
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			continue
		}
		if len(entries) != 0 {
			continue
		}
		if err := os.Remove(d); err == nil {
			removed++
		}
	}
	return removed, nil
}
