package simcontrol

import "github.com/pflow-xyz/biopetri/model"

// RateCollector is a StepListener/FiringListener pair that buffers
// per-place token history and per-transition firing-rate estimates for
// external plotting. Drawing itself is the caller's concern.
type RateCollector struct {
	maxSamples int

	times  []float64
	places map[string][]float64

	fireCounts map[string]int
	firstFire  map[string]float64
	lastFire   map[string]float64
}

// NewRateCollector builds a RateCollector retaining at most maxSamples step
// samples (0 means unlimited).
func NewRateCollector(maxSamples int) *RateCollector {
	return &RateCollector{
		maxSamples: maxSamples,
		places:     make(map[string][]float64),
		fireCounts: make(map[string]int),
		firstFire:  make(map[string]float64),
		lastFire:   make(map[string]float64),
	}
}

// OnStep is a StepListener recording the controller's full marking at the
// step's end. Register via controller.AddStepListener(collector.OnStep).
func (rc *RateCollector) OnStep(c *Controller, now float64) {
	rc.times = append(rc.times, now)
	for id, v := range c.Marking {
		rc.places[id] = append(rc.places[id], v)
	}
	if rc.maxSamples > 0 && len(rc.times) > rc.maxSamples {
		over := len(rc.times) - rc.maxSamples
		rc.times = rc.times[over:]
		for id := range rc.places {
			rc.places[id] = rc.places[id][over:]
		}
	}
}

// OnFiring is a FiringListener tallying firing counts and first/last fire
// times per transition. Register via controller.AddFiringListener(collector.OnFiring).
func (rc *RateCollector) OnFiring(t *model.Transition, now float64, details FireDetails) {
	id := details.TransitionID
	rc.fireCounts[id]++
	if _, ok := rc.firstFire[id]; !ok {
		rc.firstFire[id] = now
	}
	rc.lastFire[id] = now
}

// PlaceHistory returns the recorded token history for a place id, in step
// order. The returned slice is not a copy; callers must not mutate it.
func (rc *RateCollector) PlaceHistory(placeID string) []float64 {
	return rc.places[placeID]
}

// Times returns the step times samples were recorded at.
func (rc *RateCollector) Times() []float64 {
	return rc.times
}

// FiringRate estimates a transition's mean firing rate (firings per unit
// time) over the observed window between its first and last recorded
// firing. Returns 0 if fewer than two firings were observed.
func (rc *RateCollector) FiringRate(transitionID string) float64 {
	n := rc.fireCounts[transitionID]
	if n < 2 {
		return 0
	}
	span := rc.lastFire[transitionID] - rc.firstFire[transitionID]
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span
}

// FireCount returns how many times a transition has fired.
func (rc *RateCollector) FireCount(transitionID string) int {
	return rc.fireCounts[transitionID]
}
