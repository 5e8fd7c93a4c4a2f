package scheduler

import (
	"testing"
	"time"
)

func TestStartRegistersJobs(t *testing.T) {
	s := New(48 * time.Hour)
	s.Start()
	defer s.Stop()

	if got := len(s.cron.Entries()); got != 2 {
		t.Fatalf("定时任务数 = %d, 期望 2", got)
	}
}
