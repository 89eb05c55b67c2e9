package admin

import (
	"time"
)

// Status is the three-state sync indicator shown to the operator.
type Status string

const (
	StatusLoading   Status = "loading"
	StatusConnected Status = "connected"
	StatusError     Status = "error"
)

// SyncState pairs the indicator state with a free-text label.
type SyncState struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
}

// savedRevertDelay is how long the transient "saved" label stays up before
// reverting to "connected".
const savedRevertDelay = 2 * time.Second

// setStatus updates the sync indicator. Callers must hold c.mu.
func (c *Controller) setStatus(status Status, label string) {
	c.statusGen++
	c.status = SyncState{Status: status, Label: label}
}

// showSaved flips the indicator to the transient "saved" label and schedules
// the revert to "connected". The generation counter keeps a stale revert
// from clobbering a newer state. Callers must hold c.mu.
func (c *Controller) showSaved() {
	c.setStatus(StatusConnected, "saved")
	gen := c.statusGen

	time.AfterFunc(c.revertDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.statusGen != gen {
			return
		}
		c.setStatus(StatusConnected, "connected")
	})
}

// SyncStatus returns the current sync indicator.
func (c *Controller) SyncStatus() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
