package report

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hazyhaar/filingscan/rules"
)

func openTestArchive(t *testing.T) *SQLiteSink {
	t.Helper()
	s, err := OpenArchive(":memory:", ArchiveConfig{Actor: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChainHash(t *testing.T) {
	const want = "55452bdf0ee0a795912ddee7c73818f3a9dfe7d3ffd049c168acd194b009152c"
	if got := ChainHash("", "tester", "export", "rpt_a"); got != want {
		t.Errorf("ChainHash = %s, want %s", got, want)
	}

	h1 := ChainHash("", "a", "b", "c")
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if h1 != ChainHash("", "a", "b", "c") {
		t.Error("hash not deterministic")
	}
	if h1 == ChainHash(h1, "a", "b", "c") {
		t.Error("previous hash ignored")
	}
	// WHAT: Field boundaries are part of the hashed input.
	if ChainHash("", "ab", "", "c") == h1 {
		t.Error("shifted fields collide")
	}
}

func TestArchive_WriteListGet(t *testing.T) {
	ctx := context.Background()
	s := openTestArchive(t)

	r1 := testBuilder("rpt_a").Build(fullInputs())
	r2 := testBuilder("rpt_b").Build(Inputs{})
	for _, r := range []*Report{r1, r2} {
		if err := s.Write(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ID != "rpt_b" || entries[1].ID != "rpt_a" {
		t.Errorf("order = %s, %s; want newest first", entries[0].ID, entries[1].ID)
	}
	e := entries[1]
	if e.Documents != 2 || e.Failed != 1 {
		t.Errorf("documents/failed = %d/%d", e.Documents, e.Failed)
	}
	if e.Recommendation != string(rules.RecommendMonitor) || e.Actor != "tester" {
		t.Errorf("entry = %+v", e)
	}
	if !e.GeneratedAt.Equal(fixedTime) {
		t.Errorf("generated at = %v", e.GeneratedAt)
	}

	// WHAT: Each row chains onto the previous row's hash.
	if want := ChainHash("", "tester", "export", "rpt_a"); e.Hash != want {
		t.Errorf("first hash = %s, want %s", e.Hash, want)
	}
	if want := ChainHash(e.Hash, "tester", "export", "rpt_b"); entries[0].Hash != want {
		t.Errorf("second hash = %s, want %s", entries[0].Hash, want)
	}

	got, err := s.Get(ctx, "rpt_a")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Documents, r1.Documents) {
		t.Errorf("documents = %+v, want %+v", got.Documents, r1.Documents)
	}
	if !reflect.DeepEqual(got.Compliance, r1.Compliance) {
		t.Errorf("compliance = %+v, want %+v", got.Compliance, r1.Compliance)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: got %v, want ErrNotFound", err)
	}
	if err := s.Verify(ctx); err != nil {
		t.Errorf("verify: %v", err)
	}
}

func TestArchive_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := openTestArchive(t)
	r := testBuilder("rpt_dup").Build(Inputs{})
	if err := s.Write(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, r); err == nil {
		t.Error("duplicate id accepted")
	}
}

func TestArchive_VerifyDetectsTampering(t *testing.T) {
	// WHAT: Editing an archived row breaks the hash chain.
	ctx := context.Background()
	s := openTestArchive(t)
	for _, id := range []string{"rpt_1", "rpt_2"} {
		if err := s.Write(ctx, testBuilder(id).Build(Inputs{})); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE reports SET actor = 'mallory' WHERE id = 'rpt_1'`); err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(ctx); !errors.Is(err, ErrChainBroken) {
		t.Errorf("verify: got %v, want ErrChainBroken", err)
	}
}
