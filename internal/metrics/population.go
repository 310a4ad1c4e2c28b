package metrics

// Population is the live cell count of the latest generation that was read
// back. Samples without a population are ignored.
type Population struct {
	name    string
	last    int
	history []float64
	limit   int
}

func NewPopulation() *Population {
	return &Population{name: "population", limit: 512}
}

func (p *Population) Name() string { return p.name }

func (p *Population) Observe(x Sample) {
	if x.Population < 0 {
		return
	}
	p.last = x.Population
	p.history = append(p.history, float64(x.Population))
	if len(p.history) > p.limit {
		p.history = p.history[len(p.history)-p.limit:]
	}
}

func (p *Population) Value() float64 { return float64(p.last) }

// History returns the most recent populations, oldest first.
func (p *Population) History() []float64 {
	out := make([]float64, len(p.history))
	copy(out, p.history)
	return out
}

func (p *Population) Reset() {
	p.last = 0
	p.history = nil
}
