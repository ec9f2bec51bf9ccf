package storage

import (
	"encoding/json"
	"io"

	"github.com/gocarina/gocsv"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Frames []FrameRow  `json:"frames"`
}

// ExportJSON writes a run and its frames as one indented document.
func ExportJSON(w io.Writer, meta RunMetadata, frames []FrameRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Frames: frames})
}

func ExportCSV(w io.Writer, frames []FrameRow) error {
	if frames == nil {
		frames = []FrameRow{}
	}
	return gocsv.Marshal(&frames, w)
}
