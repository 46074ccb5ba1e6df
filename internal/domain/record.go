package domain

import "time"

// Hash 是文件内容摘要（十六进制字符串）。
// 两个文件 Hash 相同即视为内容相同；这是去重判定的唯一标准。
type Hash string

// FileRecord 描述一个元数据提取成功的候选文件。
//
// 不变量（实现必须遵守）：
// - 只有提取成功的文件才会成为 FileRecord；提取失败的文件只以原始路径进入 invalid 列表
// - Source 必须是 clean + absolute
// - Hash 在插入索引后不再变更
type FileRecord struct {
	Source    string // 物理文件的身份（绝对路径）
	RelPath   string // 相对扫描根的路径（用于输出）
	Hash      Hash
	CreatedOn time.Time // 拍摄时间；归档只关心日期粒度
}
