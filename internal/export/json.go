package export

import (
	"encoding/json"
	"os"
	"time"

	"github.com/san-kum/lifesim/internal/storage"
)

type TimingData struct {
	Generation uint64  `json:"generation"`
	Mode       string  `json:"mode"`
	StepMs     float64 `json:"step_ms"`
	Population int     `json:"population,omitempty"`
}

type ExportData struct {
	Run     storage.RunMetadata `json:"run"`
	Steps   int                 `json:"steps"`
	Timings []TimingData        `json:"timings"`
}

// ExportJSON writes a stored run and its timings as one JSON document.
func ExportJSON(path string, meta storage.RunMetadata, timings []storage.Timing) error {
	data := ExportData{
		Run:     meta,
		Steps:   len(timings),
		Timings: make([]TimingData, len(timings)),
	}

	for i, t := range timings {
		data.Timings[i] = TimingData{
			Generation: t.Generation,
			Mode:       t.Mode,
			StepMs:     float64(t.Step) / float64(time.Millisecond),
		}
		if t.Population >= 0 {
			data.Timings[i].Population = t.Population
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
