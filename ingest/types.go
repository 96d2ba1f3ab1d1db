package ingest

import (
	"time"

	"github.com/hazyhaar/filingscan/chunk"
)

// State is a document's position in its one-way lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateExtracted State = "extracted"
	StateFailed    State = "failed"
)

// Document is one uploaded file and what extraction derived from it.
// A failed document keeps its identity but all derived fields are zero.
type Document struct {
	Name         string `json:"name"`
	MediaType    string `json:"media_type"`
	Size         int64  `json:"size"`
	Text         string `json:"text,omitempty"`
	Units        int    `json:"units"`
	Quality      int    `json:"quality"`
	TableSignals int    `json:"table_signals"`
	Extracted    bool   `json:"extracted"`
	State        State  `json:"state"`
	Error        string `json:"error,omitempty"`
}

// Status summarizes a finished batch.
type Status struct {
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Chunks    int    `json:"chunks"`
	Message   string `json:"message"`
}

// Clean reports whether every document extracted without a fault.
func (s Status) Clean() bool { return s.Failed == 0 }

// Session is the immutable result of one batch: the document set, the chunk
// index built from it and the batch status. A new batch produces a new
// Session; nothing updates one in place.
type Session struct {
	Documents   []Document   `json:"documents"`
	Chunks      *chunk.Index `json:"-"`
	Status      Status       `json:"status"`
	CompletedAt time.Time    `json:"completed_at"`
}

// Ready reports whether the session holds at least one processed document.
func (s *Session) Ready() bool {
	return s != nil && len(s.Documents) > 0
}
