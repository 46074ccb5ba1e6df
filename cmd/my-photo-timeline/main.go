package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/scala-steward/my-photo-timeline/internal/app/run"
	"github.com/scala-steward/my-photo-timeline/internal/config"
	"github.com/scala-steward/my-photo-timeline/internal/domain"
	"github.com/scala-steward/my-photo-timeline/internal/meta"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Source:   ra.Source,
		Target:   ra.Target,
		Apply:    ra.Apply,
		ApplySet: ra.ApplySet,
		Debug:    ra.Debug,
		DebugSet: ra.DebugSet,
	})
	if err != nil {
		// 配置错误：零文件操作，exit 1。
		emitReport(reportForConfigError(cwdAbs, ra, err))
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW, eff.Debug)
	} else {
		// 非交互：汇总计数仍要在任何移动之前出现在 stderr（stdout 只留给 JSON）。
		obs = &planSummaryLogger{w: os.Stderr}
	}

	rr := run.ExecuteWithObserver(eff, meta.Extractor{UseFileTimes: eff.UseFileTimes}, obs)

	emitReport(rr)

	// 校验/运行级失败 -> exit 1；单文件错误不改变退出码。
	if rr.Summary.Failed > 0 {
		return 1
	}
	return 0
}

type runArgs struct {
	Source string
	Target string

	Apply    bool
	ApplySet bool

	Debug    bool
	DebugSet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	setPath := func(v string) error {
		switch {
		case ra.Source == "":
			ra.Source = v
		case ra.Target == "":
			ra.Target = v
		default:
			return fmt.Errorf("多余的位置参数：%q", v)
		}
		return nil
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--apply":
			ra.Apply = true
			ra.ApplySet = true
		case len(a) > len("--apply=") && a[:len("--apply=")] == "--apply=":
			v := a[len("--apply="):]
			switch v {
			case "true":
				ra.Apply = true
			case "false":
				ra.Apply = false
			default:
				return runArgs{}, fmt.Errorf("--apply 只能是 true 或 false，实际是 %q", v)
			}
			ra.ApplySet = true
		case a == "--debug":
			ra.Debug = true
			ra.DebugSet = true
		case len(a) > 0 && a[0] == '-':
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if err := setPath(a); err != nil {
				return runArgs{}, err
			}
		}
	}

	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  my-photo-timeline run [source] [target] [--apply[=true|false]] [--debug]

命令：
  run    扫描 source 并把照片按拍摄日期归档到 target（默认 dry-run）

使用 "my-photo-timeline run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  my-photo-timeline run [source] [target] [--apply[=true|false]] [--debug]

参数：
  source      待整理的照片目录（缺省则读配置文件）
  target      归档根目录；其下固定三个子目录：organized/ duplicated/ invalid/
  --apply     执行移动与清理（默认 dry-run）；支持 --apply=false 覆盖配置中的 apply=true
  --debug     输出每个文件的分类明细
  -h, --help  显示帮助

配置文件（可选）：<cwd>/my-photo-timeline.json
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		mode := "apply"
		if rr.DryRun {
			mode = "dry-run"
		}
		fmt.Fprintf(os.Stdout, "完成（%s）：scanned=%d unique_total=%d already_organized=%d new_unique=%d new_duplicates=%d invalid=%d moved=%d move_failed=%d\n",
			mode,
			rr.Summary.Scanned, rr.Summary.UniqueTotal, rr.Summary.AlreadyOrganized,
			rr.Summary.NewUnique, rr.Summary.NewDuplicates, rr.Summary.Invalid,
			rr.Summary.Moved, rr.Summary.MoveFailed,
		)
		for _, it := range rr.Items {
			if it.Status != domain.FileStatusFailed {
				continue
			}
			key := it.Src
			if key == "" {
				key = "<run>"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：moved=%d move_failed=%d failed=%d\n",
		rr.Summary.Moved, rr.Summary.MoveFailed, rr.Summary.Failed,
	)
}

func reportForConfigError(cwdAbs string, ra runArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Source:     cwdAbs,
		Target:     "",
		DryRun:     !(ra.ApplySet && ra.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.FileOutcome{{
			Class:     domain.ClassFailed,
			Status:    domain.FileStatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
