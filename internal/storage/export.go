package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Meta   RunMetadata `json:"meta"`
	Frames []Frame     `json:"frames"`
}

type Frame struct {
	Run  int     `json:"run"`
	Step int     `json:"step"`
	Ez   Profile `json:"ez"`
}

// ExportJSON writes metadata and every stored profile as one document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	records, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Meta:   *meta,
		Frames: make([]Frame, len(records)),
	}
	for i, r := range records {
		data.Frames[i] = Frame{Run: r.Run, Step: r.Step, Ez: r.Ez}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
