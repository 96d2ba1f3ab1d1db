package server

import (
	"time"

	"github.com/hazyhaar/filingscan/chunk"
	"github.com/hazyhaar/filingscan/ingest"
)

// documentView is a Document without its extracted text.
type documentView struct {
	Name         string       `json:"name"`
	MediaType    string       `json:"media_type"`
	Size         int64        `json:"size"`
	Units        int          `json:"units"`
	Quality      int          `json:"quality"`
	TableSignals int          `json:"table_signals"`
	State        ingest.State `json:"state"`
	Error        string       `json:"error,omitempty"`
}

type sessionResponse struct {
	Status      ingest.Status  `json:"status"`
	Documents   []documentView `json:"documents"`
	Chunks      int            `json:"chunks"`
	CompletedAt time.Time      `json:"completed_at"`
}

func sessionView(s *ingest.Session) sessionResponse {
	docs := make([]documentView, len(s.Documents))
	for i, d := range s.Documents {
		docs[i] = documentView{
			Name:         d.Name,
			MediaType:    d.MediaType,
			Size:         d.Size,
			Units:        d.Units,
			Quality:      d.Quality,
			TableSignals: d.TableSignals,
			State:        d.State,
			Error:        d.Error,
		}
	}
	return sessionResponse{
		Status:      s.Status,
		Documents:   docs,
		Chunks:      s.Chunks.Len(),
		CompletedAt: s.CompletedAt,
	}
}

func nonNilHits(h []chunk.Hit) []chunk.Hit {
	if h == nil {
		return []chunk.Hit{}
	}
	return h
}
