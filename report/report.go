// Package report assembles the export document for one session and hands it
// to a Sink. Building a report never performs I/O.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/filingscan/ingest"
	"github.com/hazyhaar/filingscan/intel"
	"github.com/hazyhaar/filingscan/rules"
)

// DocumentSummary is the per-document row of a report.
type DocumentSummary struct {
	Name         string       `json:"name"`
	MediaType    string       `json:"media_type"`
	Size         int64        `json:"size"`
	SizeLabel    string       `json:"size_label"`
	Units        int          `json:"units"`
	Quality      int          `json:"quality"`
	TableSignals int          `json:"table_signals"`
	State        ingest.State `json:"state"`
	Error        string       `json:"error,omitempty"`
}

// Report is the exported snapshot of a session and everything derived from it.
// Engine outputs that were not available are nil and explained in Notes.
type Report struct {
	ID           string            `json:"id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Status       ingest.Status     `json:"status"`
	Documents    []DocumentSummary `json:"documents"`
	Chunks       int               `json:"chunks_indexed"`
	Compliance   []rules.Finding   `json:"compliance"`
	Analytics    *rules.Analytics  `json:"analytics"`
	Preliminary  *rules.Assessment `json:"preliminary"`
	Intelligence []intel.Item      `json:"intelligence"`
	Notes        []string          `json:"notes,omitempty"`
}

// Inputs are the current snapshots a report is built from.
type Inputs struct {
	Session      *ingest.Session
	Compliance   []rules.Finding
	Analytics    *rules.Analytics
	Preliminary  *rules.Assessment
	Intelligence []intel.Item
}

// Builder stamps reports with an ID and a time.
type Builder struct {
	NewID func() string
	Now   func() time.Time
}

// NewID returns a time-ordered report identifier.
func NewID() string {
	return "rpt_" + uuid.Must(uuid.NewV7()).String()
}

var defaultBuilder = Builder{NewID: NewID, Now: time.Now}

// Build assembles a report with the default ID generator and clock.
func Build(in Inputs) *Report { return defaultBuilder.Build(in) }

// Build assembles a report from in. It does not run any engine.
func (b Builder) Build(in Inputs) *Report {
	if b.NewID == nil {
		b.NewID = NewID
	}
	if b.Now == nil {
		b.Now = time.Now
	}

	r := &Report{
		ID:           b.NewID(),
		GeneratedAt:  b.Now().UTC(),
		Documents:    []DocumentSummary{},
		Compliance:   in.Compliance,
		Analytics:    in.Analytics,
		Preliminary:  in.Preliminary,
		Intelligence: in.Intelligence,
	}

	if in.Session == nil {
		r.note("no batch has been processed")
	} else {
		r.Status = in.Session.Status
		r.Chunks = in.Session.Chunks.Len()
		for _, d := range in.Session.Documents {
			r.Documents = append(r.Documents, DocumentSummary{
				Name:         d.Name,
				MediaType:    d.MediaType,
				Size:         d.Size,
				SizeLabel:    FormatBytes(d.Size),
				Units:        d.Units,
				Quality:      d.Quality,
				TableSignals: d.TableSignals,
				State:        d.State,
				Error:        d.Error,
			})
		}
	}
	if in.Compliance == nil {
		r.note("compliance has not been evaluated")
	}
	if in.Analytics == nil {
		r.note("analytics have not been computed")
	}
	if in.Preliminary == nil {
		r.note("preliminary exam has not been run")
	}
	if in.Intelligence == nil {
		r.note("intelligence has not been refreshed")
	}
	return r
}

func (r *Report) note(s string) { r.Notes = append(r.Notes, s) }

// FormatBytes renders a size with one decimal in B, KB or MB. A value is
// promoted to the next unit only when it exceeds 1024.
func FormatBytes(n int64) string {
	units := []string{"B", "KB", "MB"}
	v := float64(n)
	i := 0
	for v > 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}
