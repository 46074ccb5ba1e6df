package run

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scala-steward/my-photo-timeline/internal/config"
	"github.com/scala-steward/my-photo-timeline/internal/domain"
	"github.com/scala-steward/my-photo-timeline/internal/meta"
)

type event struct {
	kind string // "start" | "progress" | "phase" | "file"
	name string
}

type recordingObserver struct {
	events []event
}

func (r *recordingObserver) OnStart(eff config.EffectiveConfig) {
	r.events = append(r.events, event{kind: "start"})
}

func (r *recordingObserver) OnLoadProgress(root string, done, total int) {
	r.events = append(r.events, event{kind: "progress", name: root})
}

func (r *recordingObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	r.events = append(r.events, event{kind: "phase", name: name})
}

func (r *recordingObserver) OnFileDone(idx, total int, res domain.FileOutcome, dur time.Duration) {
	r.events = append(r.events, event{kind: "file", name: res.Src})
}

func TestExecuteWithObserver_EventOrder(t *testing.T) {
	eff := setup(t, true)
	write(t, filepath.Join(eff.Source, "IMG_20200501_120000.jpg"), "a")

	obs := &recordingObserver{}
	rr := ExecuteWithObserver(eff, meta.Extractor{}, obs)
	if rr.Summary.Failed != 0 {
		t.Fatalf("不期望失败：%+v", rr.Items)
	}

	if len(obs.events) == 0 || obs.events[0].kind != "start" {
		t.Fatalf("第一个事件必须是 OnStart：%+v", obs.events)
	}

	// 汇总计数（reconcile 阶段）必须发布在任何文件移动之前。
	reconcileAt, firstFileAt := -1, -1
	for i, e := range obs.events {
		if e.kind == "phase" && e.name == "reconcile" && reconcileAt < 0 {
			reconcileAt = i
		}
		if e.kind == "file" && firstFileAt < 0 {
			firstFileAt = i
		}
	}
	if reconcileAt < 0 || firstFileAt < 0 || reconcileAt > firstFileAt {
		t.Fatalf("reconcile 阶段必须先于所有文件事件：reconcile=%d file=%d", reconcileAt, firstFileAt)
	}

	// 每个源文件一次加载进度回调。
	progress := 0
	for _, e := range obs.events {
		if e.kind == "progress" && e.name == eff.Source {
			progress++
		}
	}
	if progress != 1 {
		t.Fatalf("期望源目录 1 次进度回调，实际 %d", progress)
	}

	if _, err := os.Stat(filepath.Join(eff.Organized, "2020", "2020-05", "IMG_20200501_120000.jpg")); err != nil {
		t.Fatalf("文件未归档：%v", err)
	}
}
