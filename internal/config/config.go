package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scala-steward/my-photo-timeline/internal/infra/fsx"
	"github.com/scala-steward/my-photo-timeline/internal/scan"
)

const (
	// ErrCodeNotFound 表示 CLI 未给全路径，但 cwd 下没有配置文件。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示 CLI 与配置文件合并后仍缺少 source/target。
	ErrCodeMissingPath = "config_missing_path"
	// ErrCodeNestedRoots 表示 source/target 互为前缀（会把自己的输出当输入重新整理）。
	ErrCodeNestedRoots = "nested_roots"
	// ErrCodeBadLayout 表示某个必需目录不存在且无法创建，或被文件占用。
	ErrCodeBadLayout = "bad_layout"
)

// FileName 是可选配置文件名（从 cwd 发现）。
const FileName = "my-photo-timeline.json"

// 目标根下的三个固定子目录。
const (
	OrganizedDirName  = "organized"
	DuplicatedDirName = "duplicated"
	InvalidDirName    = "invalid"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Source string
	Target string

	Apply    bool
	ApplySet bool

	Debug    bool
	DebugSet bool
}

// FileConfig 对应 my-photo-timeline.json 的解析结构。
type FileConfig struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Apply  *bool  `json:"apply"`
	Debug  *bool  `json:"debug"`

	ExcludeDirs      []string `json:"exclude_dirs"`
	UseFileTimes     bool     `json:"use_file_times"`
	AbortOnMoveError bool     `json:"abort_on_move_error"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Source string
	Target string

	// Target 下的三个固定子目录（派生字段）。
	Organized  string
	Duplicated string
	Invalid    string

	Apply bool
	Debug bool

	ExcludeDirs      []string
	UseFileTimes     bool
	AbortOnMoveError bool
}

// Error 是配置/校验阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：缺少必填路径（source/target 需由 CLI 或配置文件 %q 提供）", e.Code, e.Path)
	case ErrCodeNestedRoots:
		return fmt.Sprintf("%s：source 与 target 不允许互相嵌套：%s", e.Code, e.Path)
	case ErrCodeBadLayout:
		if e.Err != nil {
			return fmt.Sprintf("%s：目录 %q 不可用：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：目录 %q 不可用", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供了 source 与 target：<cwd>/my-photo-timeline.json 可选
// 2) 任一路径缺失：必须读取 <cwd>/my-photo-timeline.json，且合并后两个路径齐全
//
// 覆盖优先级（固定）：
// - source/target：CLI > config
// - apply/debug：CLI 显式指定 > config > 默认 false
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	cliComplete := strings.TrimSpace(cli.Source) != "" && strings.TrimSpace(cli.Target) != ""
	if !cliComplete && !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	source := firstNonEmpty(cli.Source, fc.Source)
	target := firstNonEmpty(cli.Target, fc.Target)
	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	sourceAbs := absCleanFrom(cwdAbs, source)
	targetAbs := absCleanFrom(cwdAbs, target)

	// 嵌套守卫：否则一次 run 会把自己的输出重新当输入整理。
	if isUnder(sourceAbs, targetAbs) || isUnder(targetAbs, sourceAbs) {
		return EffectiveConfig{}, &Error{
			Code: ErrCodeNestedRoots,
			Path: fmt.Sprintf("source=%q target=%q", sourceAbs, targetAbs),
		}
	}

	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	debug := false
	if cli.DebugSet {
		debug = cli.Debug
	} else if fc.Debug != nil {
		debug = *fc.Debug
	}

	for _, pat := range fc.ExcludeDirs {
		if strings.TrimSpace(pat) == "" {
			continue
		}
		if !scan.ValidGlob(pat) {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("exclude_dirs 含非法 pattern：%q", pat)}
		}
	}

	return EffectiveConfig{
		Source:           sourceAbs,
		Target:           targetAbs,
		Organized:        filepath.Join(targetAbs, OrganizedDirName),
		Duplicated:       filepath.Join(targetAbs, DuplicatedDirName),
		Invalid:          filepath.Join(targetAbs, InvalidDirName),
		Apply:            apply,
		Debug:            debug,
		ExcludeDirs:      append([]string(nil), fc.ExcludeDirs...),
		UseFileTimes:     fc.UseFileTimes,
		AbortOnMoveError: fc.AbortOnMoveError,
	}, nil
}

// EnsureLayout 校验并准备目录布局。必须在任何处理之前调用。
//
// - apply：缺失目录会被创建（MkdirAll）
// - dry-run：只校验，不做任何写入（缺失视为可创建，直接放行）
// - 路径存在但不是目录：无论哪种模式都拒绝
func EnsureLayout(eff EffectiveConfig) error {
	dirs := []string{eff.Source, eff.Organized, eff.Duplicated, eff.Invalid}
	for _, d := range dirs {
		fi, err := os.Stat(d)
		if err == nil {
			if fi.IsDir() {
				continue
			}
			return &Error{Code: ErrCodeBadLayout, Path: d, Err: &fsx.PathTypeConflictError{Path: d, Want: "dir", Got: "file"}}
		}
		if !os.IsNotExist(err) {
			return &Error{Code: ErrCodeBadLayout, Path: d, Err: err}
		}
		if eff.Apply {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return &Error{Code: ErrCodeBadLayout, Path: d, Err: err}
			}
			continue
		}
		// dry-run：不创建，但祖先路径被文件占用仍然拒绝
		// （os.IsNotExist 对 ENOTDIR 也返回 true，不能只看 stat 结果）。
		if conflict := firstFileAncestor(d); conflict != "" {
			return &Error{Code: ErrCodeBadLayout, Path: conflict, Err: &fsx.PathTypeConflictError{Path: conflict, Want: "dir", Got: "file"}}
		}
	}
	return nil
}

// firstFileAncestor 返回 path 最近的、已存在但不是目录的祖先；没有则返回空串。
func firstFileAncestor(path string) string {
	for p := filepath.Dir(path); ; p = filepath.Dir(p) {
		fi, err := os.Stat(p)
		if err == nil {
			if !fi.IsDir() {
				return p
			}
			return ""
		}
		if filepath.Dir(p) == p {
			return ""
		}
	}
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
