// Package throttle tracks the advisory request-credit budget the Admin API
// reports alongside normal responses. The state is owned by a single export
// run and never persisted.
package throttle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cwenzel/shopify-export/pkg/catalog"
)

var creditsAvailable = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "shopify_export_credits_available",
	Help: "Request credits currently available as last reported by the API",
})

// Thresholds for throttle decisions. Credits restore at a roughly known rate
// server-side, so a short fixed pause is enough to stay out of hard 429s.
const (
	// PauseThreshold pauses the run when available credits fall below it.
	PauseThreshold = 100

	// PauseDuration is the fixed advisory pause applied below the threshold.
	PauseDuration = 2 * time.Second
)

// State is the last-known credit budget for one run.
type State struct {
	// Available is the credit count from the most recent response.
	Available float64

	// Maximum is the shop's credit ceiling.
	Maximum float64

	// RestoreRate is credits restored per second.
	RestoreRate float64

	// LastUpdate is when a response last carried throttle metadata.
	LastUpdate time.Time

	reported bool
}

// Update records the throttle status from a response. A nil status leaves
// the state unchanged; the metadata is optional on the wire.
func (s *State) Update(ts *catalog.ThrottleStatus) {
	if ts == nil {
		return
	}
	s.Available = ts.CurrentlyAvailable
	s.Maximum = ts.MaximumAvailable
	s.RestoreRate = ts.RestoreRate
	s.LastUpdate = time.Now()
	s.reported = true

	creditsAvailable.Set(ts.CurrentlyAvailable)
}

// NeedsPause reports whether the run should pause before the next request.
// Never true until the server has reported a budget at least once.
func (s *State) NeedsPause() bool {
	return s.reported && s.Available < PauseThreshold
}
