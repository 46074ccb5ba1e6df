//go:build unix

package fsx

import (
	"errors"
	"os"
	"syscall"
)

// rename(2) 跨文件系统返回 EXDEV；os.Rename 把它包在 *os.LinkError 里，
// 裸 errno 与包装后的两种形态都要识别，否则跨盘失败会被当成普通错误上报。
func isEXDEV(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	var le *os.LinkError
	if errors.As(err, &le) && errors.Is(le.Err, syscall.EXDEV) {
		return true
	}
	return false
}
