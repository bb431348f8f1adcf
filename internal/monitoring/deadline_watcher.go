package monitoring

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/services"
)

// DeadlineWatcher periodically sweeps for unfinished tasks past their
// deadline and records a task.overdue event for each, once.
type DeadlineWatcher struct {
	taskSvc  services.TaskServiceProvider
	eventSvc services.EventServiceProvider
	schedule cron.Schedule
	notified map[string]bool
	done     chan bool
}

// NewDeadlineWatcher creates a watcher driven by a standard cron expression.
func NewDeadlineWatcher(taskSvc services.TaskServiceProvider, eventSvc services.EventServiceProvider, scheduleExpr string) (*DeadlineWatcher, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", scheduleExpr, err)
	}
	return &DeadlineWatcher{
		taskSvc:  taskSvc,
		eventSvc: eventSvc,
		schedule: schedule,
		notified: make(map[string]bool),
		done:     make(chan bool),
	}, nil
}

// Run starts the watcher loop. It blocks until Stop is called.
func (w *DeadlineWatcher) Run() {
	log.Info().Msg("Starting deadline watcher")

	// Run once immediately on start
	w.Sweep(time.Now())

	for {
		next := w.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-w.done:
			timer.Stop()
			log.Info().Msg("Stopping deadline watcher")
			return
		case now := <-timer.C:
			w.Sweep(now)
		}
	}
}

// Stop halts the watcher.
func (w *DeadlineWatcher) Stop() {
	w.done <- true
}

// Sweep records an overdue event for every newly-overdue task.
func (w *DeadlineWatcher) Sweep(now time.Time) {
	tasks, err := w.taskSvc.FindOverdueTasks(now)
	if err != nil {
		log.Error().Err(err).Msg("Deadline sweep failed")
		return
	}

	for _, task := range tasks {
		if w.notified[task.ID] {
			continue
		}
		w.notified[task.ID] = true
		msg := fmt.Sprintf("Task %q passed its deadline", task.Title)
		listID := task.List
		w.eventSvc.RecordEvent("task.overdue", "warn", msg, &listID)
	}
}
