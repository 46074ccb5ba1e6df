//go:build !unix

package fsx

// 非 unix 平台不区分 EXDEV：rename 失败按普通错误上报。
func isEXDEV(err error) bool { return false }
