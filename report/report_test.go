package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/filingscan/chunk"
	"github.com/hazyhaar/filingscan/ingest"
	"github.com/hazyhaar/filingscan/intel"
	"github.com/hazyhaar/filingscan/rules"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testSession() *ingest.Session {
	return &ingest.Session{
		Documents: []ingest.Document{
			{Name: "bs.txt", MediaType: "text/plain", Size: 2048, Units: 1, Quality: 95, State: ingest.StateExtracted, Extracted: true, Text: "Balance sheet"},
			{Name: "scan.png", MediaType: "image/png", Size: 10, State: ingest.StateFailed, Error: "ocr down"},
		},
		Chunks: chunk.NewIndex(chunk.Tag("bs.txt", "Balance sheet", chunk.Options{})),
		Status: ingest.Status{Total: 2, Succeeded: 1, Failed: 1, Chunks: 1},
	}
}

func testBuilder(id string) Builder {
	return Builder{NewID: func() string { return id }, Now: func() time.Time { return fixedTime }}
}

func fullInputs() Inputs {
	return Inputs{
		Session:      testSession(),
		Compliance:   []rules.Finding{{ID: "SCHEDULEIII_BALANCE", Status: rules.StatusPartial}},
		Analytics:    &rules.Analytics{Documents: 2},
		Preliminary:  &rules.Assessment{Recommendation: rules.RecommendMonitor},
		Intelligence: []intel.Item{{Source: "SEBI", Title: "penalty", Risk: 1}},
	}
}

func TestBuild_Full(t *testing.T) {
	r := testBuilder("rpt_1").Build(fullInputs())

	if r.ID != "rpt_1" || !r.GeneratedAt.Equal(fixedTime) {
		t.Errorf("id/time = %q %v", r.ID, r.GeneratedAt)
	}
	if r.Chunks != 1 || r.Status.Failed != 1 {
		t.Errorf("chunks = %d, failed = %d", r.Chunks, r.Status.Failed)
	}
	if len(r.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(r.Documents))
	}
	if r.Documents[0].SizeLabel != "2.0 KB" {
		t.Errorf("size label = %q", r.Documents[0].SizeLabel)
	}
	if d := r.Documents[1]; d.State != ingest.StateFailed || d.Error != "ocr down" {
		t.Errorf("failed document = %+v", d)
	}
	if len(r.Notes) != 0 {
		t.Errorf("notes = %q, want none", r.Notes)
	}

	// WHAT: Document text stays out of the exported report.
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Balance sheet") {
		t.Error("document text exported")
	}
}

func TestBuild_MissingOutputsNoted(t *testing.T) {
	// WHAT: Every engine output that was never produced is nil and noted.
	r := testBuilder("rpt_2").Build(Inputs{})

	if len(r.Documents) != 0 {
		t.Errorf("documents = %d", len(r.Documents))
	}
	if r.Compliance != nil || r.Analytics != nil {
		t.Error("missing outputs not nil")
	}
	if len(r.Notes) != 5 {
		t.Errorf("notes = %d, want 5", len(r.Notes))
	}
	if !strings.Contains(strings.Join(r.Notes, ";"), "intelligence") {
		t.Errorf("notes %q do not mention intelligence", r.Notes)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if !strings.HasPrefix(a, "rpt_") || len(a) != len("rpt_")+36 {
		t.Fatalf("id = %q", a)
	}
	if a == b {
		t.Error("ids repeat")
	}
	if v := a[len("rpt_")+14]; v != '7' {
		t.Errorf("uuid version = %c, want 7", v)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		0:               "0.0 B",
		512:             "512.0 B",
		1024:            "1024.0 B",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5.0 MB",
		3 << 30:         "3072.0 MB",
	}
	for n, want := range cases {
		if got := FormatBytes(n); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestJSONFileSink(t *testing.T) {
	dir := t.TempDir()
	r := testBuilder("rpt_3").Build(fullInputs())

	// WHAT: A directory path receives the default file name.
	if err := (JSONFileSink{Path: dir}).Write(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	if err != nil {
		t.Fatal(err)
	}

	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "rpt_3" || got.Preliminary == nil || got.Preliminary.Recommendation != rules.RecommendMonitor {
		t.Errorf("round-tripped report = %+v", got)
	}

	file := filepath.Join(dir, "custom.json")
	if err := (JSONFileSink{Path: file}).Write(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(file); err != nil {
		t.Errorf("custom file: %v", err)
	}

	// WHY: Writes go through a temp file and rename; none may be left behind.
	if leftovers, _ := filepath.Glob(filepath.Join(dir, ".report-*")); len(leftovers) != 0 {
		t.Errorf("temp files left: %v", leftovers)
	}
}

type failSink struct{ calls *int }

func (f failSink) Write(context.Context, *Report) error {
	*f.calls++
	return errors.New("disk full")
}

func TestMultiSink(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	m := MultiSink{WriterSink{W: &buf}, failSink{&calls}, failSink{&calls}}

	err := m.Write(context.Background(), testBuilder("rpt_4").Build(Inputs{}))
	if err == nil || err.Error() != "disk full" {
		t.Errorf("err = %v, want disk full", err)
	}
	if calls != 1 {
		t.Errorf("sinks after the failure were called: %d", calls)
	}
	if !strings.Contains(buf.String(), `"id":"rpt_4"`) {
		t.Errorf("writer sink output = %q", buf.String())
	}
}
