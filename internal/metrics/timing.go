package metrics

import "time"

// StepTime is the mean update time in milliseconds.
type StepTime struct {
	name    string
	total   time.Duration
	samples int
}

func NewStepTime() *StepTime {
	return &StepTime{name: "step_ms"}
}

func (s *StepTime) Name() string { return s.name }

func (s *StepTime) Observe(x Sample) {
	s.total += x.Step
	s.samples++
}

func (s *StepTime) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.total) / float64(s.samples) / float64(time.Millisecond)
}

func (s *StepTime) Reset() {
	s.total = 0
	s.samples = 0
}

type MaxStepTime struct {
	name string
	max  time.Duration
}

func NewMaxStepTime() *MaxStepTime {
	return &MaxStepTime{name: "max_step_ms"}
}

func (m *MaxStepTime) Name() string { return m.name }

func (m *MaxStepTime) Observe(x Sample) {
	if x.Step > m.max {
		m.max = x.Step
	}
}

func (m *MaxStepTime) Value() float64 {
	return float64(m.max) / float64(time.Millisecond)
}

func (m *MaxStepTime) Reset() { m.max = 0 }

// Throughput is cells updated per second over all observed generations.
type Throughput struct {
	name  string
	cells int64
	total time.Duration
}

func NewThroughput() *Throughput {
	return &Throughput{name: "cells_per_sec"}
}

func (t *Throughput) Name() string { return t.name }

func (t *Throughput) Observe(x Sample) {
	t.cells += int64(x.Cells)
	t.total += x.Step
}

func (t *Throughput) Value() float64 {
	if t.total <= 0 {
		return 0
	}
	return float64(t.cells) / t.total.Seconds()
}

func (t *Throughput) Reset() {
	t.cells = 0
	t.total = 0
}
