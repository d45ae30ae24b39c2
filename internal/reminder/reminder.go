// Package reminder sends the daily weigh-in reminder to every participant.
package reminder

import (
	"context"
	"log/slog"
	"sort"

	"weightduel/internal/domain"
)

// RosterSource lists the claimed roles.
type RosterSource interface {
	Roster() map[string]domain.RosterEntry
}

// Recorder receives reminder observations.
type Recorder interface {
	RecordFiring()
	RecordDelivery(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordFiring()         {}
func (nopRecorder) RecordDelivery(string) {}

// Report summarizes one firing.
type Report struct {
	Attempted int
	Delivered int
	// Failed maps role key to the delivery error.
	Failed map[string]error
}

// Broadcaster delivers the reminder text to every claimed role.
type Broadcaster struct {
	roster   RosterSource
	notifier domain.Notifier
	text     string
	logger   *slog.Logger
	recorder Recorder
}

// NewBroadcaster creates a Broadcaster. logger and recorder may be nil.
func NewBroadcaster(roster RosterSource, notifier domain.Notifier, text string, logger *slog.Logger, recorder Recorder) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Broadcaster{roster: roster, notifier: notifier, text: text, logger: logger, recorder: recorder}
}

// Fire notifies each claimed role once. A failed delivery is logged and
// counted and does not stop the others; there are no retries.
func (b *Broadcaster) Fire(ctx context.Context) Report {
	b.recorder.RecordFiring()
	roster := b.roster.Roster()

	keys := make([]string, 0, len(roster))
	for k := range roster {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rep := Report{Failed: make(map[string]error)}
	for _, k := range keys {
		r := roster[k]
		rep.Attempted++
		if err := b.notifier.Notify(ctx, r.Identity, b.text); err != nil {
			rep.Failed[k] = err
			b.recorder.RecordDelivery("error")
			b.logger.Warn("reminder delivery failed",
				slog.String("role", k),
				slog.Int64("identity", int64(r.Identity)),
				slog.String("error", err.Error()))
			continue
		}
		rep.Delivered++
		b.recorder.RecordDelivery("ok")
	}
	b.logger.Info("reminder fired",
		slog.Int("attempted", rep.Attempted),
		slog.Int("delivered", rep.Delivered))
	return rep
}
