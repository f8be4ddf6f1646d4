package pipeline

import (
	"time"

	"geostamp/internal/sequence"
)

// ItemResult captures the outcome of one image.
type ItemResult struct {
	Index    int
	Source   string
	Output   string
	Draw     sequence.Draw
	Bytes    int64
	Duration time.Duration
	Error    error
}

// Report summarizes a Process or Export call.
type Report struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Items    []ItemResult
}

// Failed returns the items that did not complete.
func (r *Report) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Error != nil {
			out = append(out, it)
		}
	}
	return out
}

// Succeeded counts completed items.
func (r *Report) Succeeded() int {
	return len(r.Items) - len(r.Failed())
}
