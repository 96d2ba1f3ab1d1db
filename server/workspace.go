// Package server exposes a filingscan Workspace over HTTP (chi) and MCP.
//
// The Workspace holds the latest snapshots: the batch Session, the engine
// outputs derived from it and the intelligence list. Every snapshot is
// replaced wholesale; readers never see a half-updated value.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/hazyhaar/filingscan/chunk"
	"github.com/hazyhaar/filingscan/docpipe"
	"github.com/hazyhaar/filingscan/ingest"
	"github.com/hazyhaar/filingscan/intel"
	"github.com/hazyhaar/filingscan/report"
	"github.com/hazyhaar/filingscan/rules"
)

// NoAnswer is returned by Ask when no chunk matches.
const NoAnswer = `No direct chunk match found. Try a narrower regulatory phrase (e.g., "cash flow", "related party", "BRSR").`

// WorkspaceConfig wires a Workspace's collaborators. Only Orchestrator and
// Engine are required.
type WorkspaceConfig struct {
	Pipeline     *docpipe.Pipeline
	Orchestrator *ingest.Orchestrator
	Engine       *rules.Engine
	Refresher    *intel.Refresher
	Sink         report.Sink
	Archive      *report.SQLiteSink
	Logger       *slog.Logger
}

// Workspace is the in-memory state shared by the HTTP and MCP surfaces.
type Workspace struct {
	cfg    WorkspaceConfig
	logger *slog.Logger

	// batchMu serializes batches, refreshMu serializes intel refreshes and
	// mu guards the snapshots.
	batchMu   sync.Mutex
	refreshMu sync.Mutex
	mu        sync.RWMutex

	session    *ingest.Session
	findings   []rules.Finding
	analytics  *rules.Analytics
	assessment *rules.Assessment
	items      []intel.Item
}

// NewWorkspace creates an empty Workspace.
func NewWorkspace(cfg WorkspaceConfig) *Workspace {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Workspace{cfg: cfg, logger: cfg.Logger}
}

// Process runs a batch and installs its Session. Engine outputs derived from
// the previous session are discarded.
func (w *Workspace) Process(ctx context.Context, files []docpipe.File) *ingest.Session {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()

	sess := w.cfg.Orchestrator.Run(ctx, files)

	w.mu.Lock()
	w.session = sess
	w.findings = nil
	w.analytics = nil
	w.assessment = nil
	w.mu.Unlock()
	return sess
}

// Session returns the current session, or nil before the first batch.
func (w *Workspace) Session() *ingest.Session {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.session
}

// Compliance evaluates the current session and stores the findings.
func (w *Workspace) Compliance() ([]rules.Finding, error) {
	sess := w.Session()
	findings, err := w.cfg.Engine.Compliance(sess)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if w.session == sess {
		w.findings = findings
	}
	w.mu.Unlock()
	return findings, nil
}

// Analytics summarizes the current session and stores the result.
func (w *Workspace) Analytics() (*rules.Analytics, error) {
	sess := w.Session()
	a, err := w.cfg.Engine.Analytics(sess)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if w.session == sess {
		w.analytics = a
	}
	w.mu.Unlock()
	return a, nil
}

// Exam runs the preliminary exam over the stored findings and intelligence.
// It reports rules.ErrNotReady until both have been produced.
func (w *Workspace) Exam() (*rules.Assessment, error) {
	w.mu.RLock()
	sess, findings, items := w.session, w.findings, w.items
	w.mu.RUnlock()

	a, err := w.cfg.Engine.Exam(sess, findings, items)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if w.session == sess {
		w.assessment = a
	}
	w.mu.Unlock()
	return a, nil
}

// Intelligence returns the current item list, nil before the first refresh.
func (w *Workspace) Intelligence() []intel.Item {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.items
}

// SetIntelligence installs a refreshed item list. The stored assessment is
// dropped since it was derived from the previous list.
func (w *Workspace) SetIntelligence(items []intel.Item) {
	if items == nil {
		items = []intel.Item{}
	}
	w.mu.Lock()
	w.items = items
	w.assessment = nil
	w.mu.Unlock()
}

// ErrRefreshBusy is returned by TryRefreshIntelligence while another refresh
// is running.
var ErrRefreshBusy = errors.New("intelligence refresh already running")

var errNoRefresher = errors.New("intelligence refresh is not configured")

// RefreshIntelligence fetches every source and installs the result. It waits
// for a refresh already in flight to finish first.
func (w *Workspace) RefreshIntelligence(ctx context.Context) ([]intel.Item, error) {
	if w.cfg.Refresher == nil {
		return nil, errNoRefresher
	}
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()
	return w.refresh(ctx), nil
}

// TryRefreshIntelligence is RefreshIntelligence for scheduled runs: it
// returns ErrRefreshBusy instead of waiting.
func (w *Workspace) TryRefreshIntelligence(ctx context.Context) ([]intel.Item, error) {
	if w.cfg.Refresher == nil {
		return nil, errNoRefresher
	}
	if !w.refreshMu.TryLock() {
		return nil, ErrRefreshBusy
	}
	defer w.refreshMu.Unlock()
	return w.refresh(ctx), nil
}

// refresh requires refreshMu.
func (w *Workspace) refresh(ctx context.Context) []intel.Item {
	items := w.cfg.Refresher.Refresh(ctx)
	w.SetIntelligence(items)
	return items
}

// Search looks up chunks in the current session.
func (w *Workspace) Search(query string, limit int) []chunk.Hit {
	sess := w.Session()
	if sess == nil {
		return nil
	}
	return sess.Chunks.Search(query, limit)
}

// Answer is the result of Ask.
type Answer struct {
	Question string      `json:"question"`
	Text     string      `json:"answer"`
	Hits     []chunk.Hit `json:"hits"`
}

// Ask answers a question with the best matching chunks joined by " ... ".
func (w *Workspace) Ask(question string) Answer {
	question = strings.TrimSpace(question)
	hits := w.Search(question, chunk.DefaultSearchLimit)
	if len(hits) == 0 {
		return Answer{Question: question, Text: NoAnswer, Hits: []chunk.Hit{}}
	}
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Chunk.Text
	}
	return Answer{Question: question, Text: strings.Join(parts, " ... "), Hits: hits}
}

// Report assembles a report from the stored snapshots and writes it to the
// configured sinks.
func (w *Workspace) Report(ctx context.Context) (*report.Report, error) {
	w.mu.RLock()
	in := report.Inputs{
		Session:      w.session,
		Compliance:   w.findings,
		Analytics:    w.analytics,
		Preliminary:  w.assessment,
		Intelligence: w.items,
	}
	w.mu.RUnlock()

	r := report.Build(in)
	var sinks report.MultiSink
	if w.cfg.Sink != nil {
		sinks = append(sinks, w.cfg.Sink)
	}
	if w.cfg.Archive != nil {
		sinks = append(sinks, w.cfg.Archive)
	}
	if err := sinks.Write(ctx, r); err != nil {
		return nil, err
	}
	w.logger.Info("report: exported", "id", r.ID, "documents", len(r.Documents), "notes", len(r.Notes))
	return r, nil
}

// DocumentEvidence is the statement headings and leading lines of one
// document.
type DocumentEvidence struct {
	Name     string          `json:"name"`
	Sections []rules.Section `json:"sections"`
	Evidence []string        `json:"evidence"`
}

// Evidence locates a document of the current session by name and returns its
// section anchors and evidence lines. ok is false when there is no such
// document.
func (w *Workspace) Evidence(name string) (DocumentEvidence, bool) {
	sess := w.Session()
	if sess == nil {
		return DocumentEvidence{}, false
	}
	for _, d := range sess.Documents {
		if d.Name == name {
			ev := DocumentEvidence{Name: d.Name, Sections: rules.Sections(d.Text), Evidence: rules.Evidence(d.Text)}
			if ev.Sections == nil {
				ev.Sections = []rules.Section{}
			}
			if ev.Evidence == nil {
				ev.Evidence = []string{}
			}
			return ev, true
		}
	}
	return DocumentEvidence{}, false
}

// Capabilities lists which formats currently have an extraction backend.
func (w *Workspace) Capabilities() map[docpipe.Format]bool {
	if w.cfg.Pipeline == nil {
		return nil
	}
	return w.cfg.Pipeline.Capabilities()
}

// Archive returns the report archive, or nil.
func (w *Workspace) Archive() *report.SQLiteSink { return w.cfg.Archive }
