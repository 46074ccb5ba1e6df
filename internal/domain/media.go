package domain

// MediaFile 描述一次扫描得到的媒体文件（只记录路径，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - 扫描阶段不读文件内容；内容相关的判断全部推迟到元数据提取
type MediaFile struct {
	AbsPath string
	RelPath string
}
