package chunk

import (
	"sort"
	"strings"
)

// DefaultSearchLimit caps Search results when limit <= 0.
const DefaultSearchLimit = 2

// Index is a read-only, ordered chunk sequence. It is rebuilt, never updated.
type Index struct {
	chunks []Chunk
}

// Hit is a search result.
type Hit struct {
	Chunk Chunk `json:"chunk"`
	Score int   `json:"score"`
}

// NewIndex wraps chunks. The slice is copied.
func NewIndex(chunks []Chunk) *Index {
	cp := make([]Chunk, len(chunks))
	copy(cp, chunks)
	return &Index{chunks: cp}
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.chunks)
}

// Chunks returns a copy of the indexed chunks in order.
func (ix *Index) Chunks() []Chunk {
	if ix == nil {
		return nil
	}
	cp := make([]Chunk, len(ix.chunks))
	copy(cp, ix.chunks)
	return cp
}

// Search scores each chunk by how many distinct query terms it contains
// (case-insensitive substring) and returns the best hits. Equal scores keep
// index order.
func (ix *Index) Search(query string, limit int) []Hit {
	if ix == nil {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var hits []Hit
	for _, c := range ix.chunks {
		lower := strings.ToLower(c.Text)
		score := 0
		for _, t := range terms {
			if strings.Contains(lower, t) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, Hit{Chunk: c, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, `.,;:!?"'()`)
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
