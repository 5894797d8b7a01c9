package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/emsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Boundary    string             `json:"boundary"`
	Mode        string             `json:"mode"`
	NX          int                `json:"nx"`
	NT          int                `json:"nt"`
	C           float64            `json:"c"`
	Dx          float64            `json:"dx"`
	Dt          float64            `json:"dt"`
	Eps0        float64            `json:"eps0"`
	Mu0         float64            `json:"mu0"`
	Src         int                `json:"src"`
	PulseCenter float64            `json:"pulse_center"`
	PulseWidth  float64            `json:"pulse_width"`
	Runs        int                `json:"runs"`
	StepsTaken  int                `json:"steps_taken"`
	Stop        string             `json:"stop"`
	RecordEvery int                `json:"record_every"`
	Frames      int                `json:"frames"`
	Metrics     Metrics            `json:"metrics"`
}

// Record is one stored Ez profile.
type Record struct {
	Run  int
	Step int
	Ez   []float64
}

// Recorder is a sim.Observer that keeps every n-th frame of the latest run,
// plus the last frame of the stream. Frames of earlier runs are dropped when
// a new run starts, so a long repeating session stays bounded.
type Recorder struct {
	every   int
	run     int
	records []Record
	last    *Record
}

func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{every: every}
}

func (r *Recorder) OnStep(f sim.Frame) {
	if f.Run != r.run {
		r.run = f.Run
		clear(r.records)
		r.records = r.records[:0]
		r.last = nil
	}

	rec := Record{Run: f.Run, Step: f.Step, Ez: f.Ez}
	if f.Step%r.every == 0 {
		r.records = append(r.records, rec)
		r.last = nil
		return
	}
	r.last = &rec
}

func (r *Recorder) Every() int { return r.every }

// Records returns the kept frames in emission order.
func (r *Recorder) Records() []Record {
	if r.last == nil {
		return r.records
	}
	return append(r.records[:len(r.records):len(r.records)], *r.last)
}

func (s *Store) Save(result *sim.Result, rec *Recorder) (string, error) {
	name := result.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	var records []Record
	every := 0
	if rec != nil {
		records = rec.Records()
		every = rec.Every()
	}

	p := result.Params
	meta := RunMetadata{
		ID:          runID,
		Name:        name,
		Timestamp:   time.Now(),
		Boundary:    string(result.Boundary),
		Mode:        string(result.Mode),
		NX:          p.NX,
		NT:          p.NT,
		C:           p.C,
		Dx:          p.Dx,
		Dt:          p.Dt,
		Eps0:        p.Eps0,
		Mu0:         p.Mu0,
		Src:         p.Src,
		PulseCenter: p.PulseCenter,
		PulseWidth:  p.PulseWidth,
		Runs:        result.Runs,
		StepsTaken:  result.StepsTaken,
		Stop:        string(result.Stop),
		RecordEvery: every,
		Frames:      len(records),
		Metrics:     result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), p.NX, records); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrames(path string, nx int, records []Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)

	header := []string{"run", "step"}
	for i := 0; i < nx; i++ {
		header = append(header, fmt.Sprintf("ez%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{strconv.Itoa(r.Run), strconv.Itoa(r.Step)}
		for _, val := range r.Ez {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns stored runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return []Record{}, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}

		run, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("frames row %d: %w", i+1, err)
		}
		step, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("frames row %d: %w", i+1, err)
		}

		ez := make([]float64, 0, len(row)-2)
		for _, field := range row[2:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("frames row %d: %w", i+1, err)
			}
			ez = append(ez, val)
		}
		records = append(records, Record{Run: run, Step: step, Ez: ez})
	}

	return records, nil
}
