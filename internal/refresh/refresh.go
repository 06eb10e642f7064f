// Package refresh drives the periodic background updates of the client: a
// cron schedule that pushes refresh messages into the running UI. The UI
// itself owns no timers; it only reacts to the messages this package sends.
package refresh

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Refresher runs named jobs on cron schedules. Each job sends one message
// through the send callback when its schedule fires.
type Refresher struct {
	cron   *cron.Cron
	send   func(any)
	logger *slog.Logger

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	started bool
}

// New creates a Refresher that delivers messages through send.
func New(send func(any)) *Refresher {
	return &Refresher{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
		send:   send,
		logger: slog.Default(),
		jobs:   make(map[string]cron.EntryID),
	}
}

// WithLogger sets the logger for the refresher.
func (r *Refresher) WithLogger(logger *slog.Logger) *Refresher {
	r.logger = logger
	return r
}

// Add schedules msg to be sent on the given cron expression (with seconds).
// Re-adding a name replaces its schedule.
func (r *Refresher) Add(name, cronExpr string, msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.jobs[name]; ok {
		r.cron.Remove(id)
		delete(r.jobs, name)
	}

	id, err := r.cron.AddFunc(cronExpr, func() {
		r.logger.Debug("refresh fired", "job", name)
		r.send(msg)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", cronExpr, name, err)
	}
	r.jobs[name] = id
	r.logger.Info("refresh scheduled", "job", name, "schedule", cronExpr)
	return nil
}

// Remove drops a scheduled job. Unknown names are a no-op.
func (r *Refresher) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.jobs[name]; ok {
		r.cron.Remove(id)
		delete(r.jobs, name)
	}
}

// Start begins firing schedules. Safe to call once.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.cron.Start()
}

// Stop halts the schedule and waits for in-flight jobs to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.started = false
	ctx := r.cron.Stop()
	<-ctx.Done()
}
