package metrics

import "time"

// Sample is one observed generation.
type Sample struct {
	Generation uint64
	Step       time.Duration
	Cells      int
	// Population is negative when the generation was not read back.
	Population int
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Default returns the metrics recorded for every run.
func Default() []Metric {
	return []Metric{
		NewStepTime(),
		NewMaxStepTime(),
		NewThroughput(),
		NewPopulation(),
	}
}

// Observe feeds s to every metric.
func Observe(ms []Metric, s Sample) {
	for _, m := range ms {
		m.Observe(s)
	}
}

// Values collects the current value of each metric by name.
func Values(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
