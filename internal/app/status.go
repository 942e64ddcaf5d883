package app

import (
	"context"
	"time"

	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/nimasrn/denitracker/internal/syncer"
)

// SyncStatus is what the UI shows next to the sync button.
type SyncStatus struct {
	Running      bool                   `json:"running"`
	Scheduled    bool                   `json:"scheduled"`
	Connectivity string                 `json:"connectivity"`
	LastCheck    *time.Time             `json:"last_check,omitempty"`
	QueueDepth   int64                  `json:"queue_depth"`
	LastReport   *syncer.Report         `json:"last_report,omitempty"`
	Stats        map[string]interface{} `json:"stats"`
	Remote       remote.Snapshot        `json:"remote"`
}

func (a *App) SyncStatus(ctx context.Context) (SyncStatus, error) {
	depth, err := a.Coordinator.QueueDepth(ctx)
	if err != nil {
		return SyncStatus{}, err
	}
	s := SyncStatus{
		Running:      a.Coordinator.Running(),
		Scheduled:    a.Runner != nil && a.Runner.Pending(),
		Connectivity: a.Monitor.State().String(),
		QueueDepth:   depth,
		Stats:        a.Coordinator.Stats(),
		Remote:       a.Remote.Stats(),
	}
	if a.Runner != nil {
		if n := a.Runner.Crashes(); n > 0 {
			s.Stats["runner_crashes"] = n
		}
	}
	if at := a.Monitor.LastCheck(); !at.IsZero() {
		s.LastCheck = &at
	}
	if r, ok := a.Coordinator.LastReport(); ok {
		s.LastReport = &r
	}
	return s, nil
}

// TriggerSync asks the background runner for a run. It returns false when
// a run is already queued.
func (a *App) TriggerSync(reason string) bool {
	return a.Runner.Trigger(reason)
}
