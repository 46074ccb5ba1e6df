package planner

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDestinationFor_YearMonthPartition(t *testing.T) {
	root := filepath.Join("/", "t", "organized")

	may := time.Date(2020, 5, 17, 14, 30, 0, 0, time.UTC)
	got := DestinationFor(root, may)
	want := filepath.Join(root, "2020", "2020-05")
	if got != want {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}

	// 同一天的不同时刻映射到同一目录。
	sameDay := time.Date(2020, 5, 17, 23, 59, 59, 0, time.UTC)
	if DestinationFor(root, sameDay) != want {
		t.Fatalf("同一日期必须映射到同一目录")
	}

	// 不同月份映射到不同目录。
	june := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	if DestinationFor(root, june) == want {
		t.Fatalf("不同月份不应映射到同一目录")
	}
}
