package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one timed run. Only timings are stored, never grids.
type RunMetadata struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Timestamp   time.Time          `json:"timestamp"`
	Side        int                `json:"side"`
	TileSize    int                `json:"tile_size"`
	Density     float64            `json:"density"`
	Seed        int64              `json:"seed"`
	Device      string             `json:"device"`
	Workers     int                `json:"workers"`
	Generations int                `json:"generations"`
	Host        HostInfo           `json:"host"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Timing is one measured generation.
type Timing struct {
	Generation uint64
	Mode       string
	Step       time.Duration
	Population int
}

var timingHeader = []string{"generation", "mode", "step_ms", "population"}

// Save writes meta and timings under a new run directory and returns its ID.
// meta.ID and meta.Timestamp are filled in when empty.
func (s *Store) Save(meta RunMetadata, timings []Timing) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d_%d", meta.Kind, meta.Side, meta.Timestamp.UnixNano())
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "timings.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(timingHeader); err != nil {
		return "", err
	}
	for _, t := range timings {
		row := []string{
			strconv.FormatUint(t.Generation, 10),
			t.Mode,
			strconv.FormatFloat(float64(t.Step)/float64(time.Millisecond), 'f', 6, 64),
			strconv.Itoa(t.Population),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTimings reads a run's timings.csv. Malformed rows are skipped.
func (s *Store) LoadTimings(runID string) ([]Timing, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "timings.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Timing{}, nil
	}

	timings := make([]Timing, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < len(timingHeader) {
			continue
		}
		gen, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			continue
		}
		ms, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			continue
		}
		pop, err := strconv.Atoi(record[3])
		if err != nil {
			continue
		}
		timings = append(timings, Timing{
			Generation: gen,
			Mode:       record[1],
			Step:       time.Duration(ms * float64(time.Millisecond)),
			Population: pop,
		})
	}
	return timings, nil
}

// StepSeries returns step times in milliseconds for one mode, or all modes
// when mode is empty.
func StepSeries(timings []Timing, mode string) []float64 {
	out := make([]float64, 0, len(timings))
	for _, t := range timings {
		if mode != "" && t.Mode != mode {
			continue
		}
		out = append(out, float64(t.Step)/float64(time.Millisecond))
	}
	return out
}
