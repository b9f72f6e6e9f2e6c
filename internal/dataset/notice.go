package dataset

import (
	"fmt"
	"time"
)

// Notice announces a freshly published dataset on the message bus.
type Notice struct {
	RunID       string    `json:"run_id"`
	Path        string    `json:"path"`
	Rows        int       `json:"rows"`
	Files       int       `json:"files"`
	PublishedAt time.Time `json:"published_at"`
}

func (n Notice) Validate() error {
	if n.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if n.PublishedAt.IsZero() {
		return fmt.Errorf("published_at is required")
	}
	if n.Rows < 0 {
		return fmt.Errorf("rows must not be negative: %d", n.Rows)
	}
	return nil
}
