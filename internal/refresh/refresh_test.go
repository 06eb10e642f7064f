package refresh

import (
	"testing"
	"time"
)

func TestAdd_RejectsInvalidSchedule(t *testing.T) {
	r := New(func(any) {})
	if err := r.Add("bad", "not a schedule", struct{}{}); err == nil {
		t.Fatal("invalid cron expression accepted")
	}
}

func TestAdd_ReplacesExistingJob(t *testing.T) {
	r := New(func(any) {})
	if err := r.Add("job", "@every 1h", 1); err != nil {
		t.Fatal(err)
	}
	if err := r.Add("job", "@every 2h", 2); err != nil {
		t.Fatal(err)
	}
	if len(r.jobs) != 1 {
		t.Fatalf("jobs = %d after replace, want 1", len(r.jobs))
	}
}

func TestRemove_UnknownNameIsNoop(t *testing.T) {
	r := New(func(any) {})
	r.Remove("missing")
}

func TestStartStop_DeliversScheduledMessage(t *testing.T) {
	got := make(chan any, 1)
	r := New(func(msg any) {
		select {
		case got <- msg:
		default:
		}
	})
	if err := r.Add("tick", "* * * * * *", "refresh"); err != nil {
		t.Fatal(err)
	}
	r.Start()
	defer r.Stop()

	select {
	case msg := <-got:
		if msg != "refresh" {
			t.Fatalf("delivered %v, want refresh", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled message never delivered")
	}
}
