// Package recurring posts the missed occurrences of recurring transactions.
package recurring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/koban-io/koban/internal/ledger"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/types"
)

// maxOccurrences bounds the catch-up loop per template. A healthy weekly
// template that has been dormant for a year posts ~52 instances; hitting the
// cap means the template data is pathological, not that the user was away.
const maxOccurrences = 1000

// Scheduler catches up recurring transactions. It runs once per application
// load, not on a timer.
type Scheduler struct {
	ledger *ledger.Ledger
	log    *slog.Logger
}

// New creates a Scheduler over the ledger.
func New(l *ledger.Ledger, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{ledger: l, log: logger}
}

// CatchUp walks every recurrence template and posts one instance for each
// missed due date up to and including today, then advances the template's
// next-due date past today. It operates on a snapshot taken up front, so the
// instances it posts are not reprocessed within the same run; running it
// again immediately posts nothing.
func (s *Scheduler) CatchUp(ctx context.Context, today types.Date) (int, error) {
	posted := 0

	// Snapshot before mutating: generated instances land in the same
	// buckets the walk would otherwise visit.
	snapshot := s.ledger.All()

	for _, template := range snapshot {
		if !template.IsRecurring() {
			continue
		}

		next := *template.NextDue
		generated := 0
		for !next.After(today) {
			if generated >= maxOccurrences {
				s.log.Warn("recurrence cap reached, template left behind",
					"id", template.ID, "nextDue", next.String())
				break
			}

			instance := model.Transaction{
				ID:       model.NewID(),
				Type:     template.Type,
				Category: template.Category,
				Amount:   template.Amount,
				Date:     next,
				Note:     template.Note + " (recurring)",
			}
			if err := s.ledger.Add(ctx, instance); err != nil {
				return posted, fmt.Errorf("failed to post recurring instance: %w", err)
			}
			generated++
			posted++

			advanced := template.Recurring.Next(next)
			if !advanced.After(next) {
				// A non-advancing interval would loop forever.
				s.log.Warn("recurrence interval does not advance, stopping",
					"id", template.ID, "interval", string(template.Recurring))
				break
			}
			next = advanced
		}

		if generated > 0 {
			due := next
			if err := s.ledger.Update(ctx, template.ID, ledger.TxPatch{NextDue: &due}); err != nil {
				return posted, fmt.Errorf("failed to advance template: %w", err)
			}
			s.log.Info("recurring transactions posted",
				"template", template.ID, "count", generated, "nextDue", due.String())
		}
	}

	return posted, nil
}
