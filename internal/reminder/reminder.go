package reminder

import (
	"context"
	"log"
	"time"

	"evaluation-workflow-api/internal/models"
	"evaluation-workflow-api/internal/realtime"

	"gorm.io/gorm"
)

// Checker periodically scans for evaluations whose deadline falls inside the
// warning window and dispatches a deadline_approaching notification to the
// evaluator. Each evaluation is reminded at most once; editing the due date
// re-arms it.
type Checker struct {
	db         *gorm.DB
	dispatcher *realtime.Dispatcher
	interval   time.Duration
	window     time.Duration
}

// New returns a checker with the default 1-minute scan interval and 24-hour
// warning window.
func New(db *gorm.DB, dispatcher *realtime.Dispatcher) *Checker {
	return &Checker{
		db:         db,
		dispatcher: dispatcher,
		interval:   time.Minute,
		window:     24 * time.Hour,
	}
}

// Run blocks, scanning on every tick until the context is cancelled.
func (ch *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(ch.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ch.CheckOnce(); err != nil {
				log.Println("deadline reminder scan failed:", err)
			}
		}
	}
}

// CheckOnce performs a single scan. Due dates are stored as strings in the
// API's flexible formats, so filtering happens in Go after a coarse DB query.
func (ch *Checker) CheckOnce() error {
	var candidates []models.Evaluation
	if err := ch.db.
		Where("status <> ? AND reminded = ? AND due_date <> ''",
			models.EvaluationCompleted, false).
		Find(&candidates).Error; err != nil {
		return err
	}

	cutoff := time.Now().Add(ch.window)
	for _, e := range candidates {
		due, ok := parseDueDate(e.DueDate)
		if !ok || due.After(cutoff) {
			continue
		}

		ch.dispatcher.DeadlineApproaching(e.EvaluatorID, e.ID, e.Title, e.DueDate)

		if err := ch.db.Model(&models.Evaluation{}).
			Where("id = ?", e.ID).
			Update("reminded", true).Error; err != nil {
			return err
		}
	}
	return nil
}

func parseDueDate(dateStr string) (time.Time, bool) {
	layouts := []string{
		"2006-01-02",
		"2 Jan 2006",
		time.RFC3339,
		"02 Jan 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
