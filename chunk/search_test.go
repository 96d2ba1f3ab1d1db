package chunk

import "testing"

func testIndex() *Index {
	return NewIndex([]Chunk{
		{Source: "a.txt", Index: 0, Text: "The Cash Flow statement is disclosed."},
		{Source: "a.txt", Index: 1, Text: "Related party transactions with directors."},
		{Source: "b.txt", Index: 0, Text: "Cash flow from operations and related party loans."},
	})
}

func TestSearch_RanksByTermOverlap(t *testing.T) {
	// WHAT: Chunks matching more query terms rank first.
	// WHY: The lookup affordance returns the most relevant fragments.
	hits := testIndex().Search("cash related", 3)
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	if hits[0].Chunk.Source != "b.txt" || hits[0].Score != 2 {
		t.Errorf("top hit = %+v, want b.txt with score 2", hits[0])
	}
	if hits[1].Chunk.Source != "a.txt" || hits[1].Chunk.Index != 0 {
		t.Errorf("tie should keep index order, got %+v", hits[1])
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	hits := testIndex().Search("party", 0)
	if len(hits) != DefaultSearchLimit {
		t.Errorf("got %d hits, want %d", len(hits), DefaultSearchLimit)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	if hits := testIndex().Search("brsr", 5); len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
	if hits := testIndex().Search("   ", 5); hits != nil {
		t.Errorf("expected nil for blank query, got %v", hits)
	}
}

func TestIndex_NilSafe(t *testing.T) {
	var ix *Index
	if ix.Len() != 0 || ix.Chunks() != nil || ix.Search("x", 1) != nil {
		t.Error("nil index should behave as empty")
	}
}
