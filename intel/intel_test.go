package intel

import (
	"errors"
	"maps"
	"math"
	"slices"
	"testing"
	"time"
)

func TestScore(t *testing.T) {
	// WHAT: One point per vocabulary term present, case-insensitive substring.
	cases := []struct {
		title, desc string
		want        int
	}{
		{"SEBI issues penalty order for non-compliance", "", 3},
		{"Quarterly results announced", "Revenue up", 0},
		// "defaulted" contains "default", "orders" contains "order".
		{"Borrower defaulted", "Court ORDERS recovery", 2},
		{"penalty order non-compliance fraud", "enforcement violation investigation default", len(Vocabulary)},
	}
	for _, c := range cases {
		if got := Score(c.title, c.desc); got != c.want {
			t.Errorf("Score(%q, %q) = %d, want %d", c.title, c.desc, got, c.want)
		}
	}
}

func TestScored_DoesNotMutate(t *testing.T) {
	in := []Item{{Title: "fraud investigation"}}
	out := Scored(in)
	if in[0].Risk != 0 {
		t.Errorf("input mutated: risk = %d", in[0].Risk)
	}
	if out[0].Risk != 2 {
		t.Errorf("scored risk = %d, want 2", out[0].Risk)
	}
}

func TestSortByRisk(t *testing.T) {
	// WHAT: Risk descending; equal risk puts the newer item first.
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Item{
		{Title: "low", Risk: 0, PublishedAt: t0},
		{Title: "high-old", Risk: 3, PublishedAt: t0},
		{Title: "high-new", Risk: 3, PublishedAt: t0.Add(time.Hour)},
		{Title: "mid", Risk: 2},
	}
	SortByRisk(items)
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	if want := []string{"high-new", "high-old", "mid", "low"}; !slices.Equal(titles, want) {
		t.Errorf("order = %v, want %v", titles, want)
	}
}

func TestHighRisk(t *testing.T) {
	items := []Item{{Title: "a", Risk: 2}, {Title: "b", Risk: 1}, {Title: "c", Risk: 5}, {Title: "d", Risk: 2}}
	got := HighRisk(items, 2, 2)
	if len(got) != 2 || got[0].Title != "a" || got[1].Title != "c" {
		t.Errorf("HighRisk = %+v, want a, c", got)
	}
	if got := HighRisk(nil, 2, 5); got != nil {
		t.Errorf("HighRisk(nil) = %+v, want nil", got)
	}
}

func TestAuditFirmRisk(t *testing.T) {
	cases := []struct {
		recent, repeat, entities int
		want                     float64
	}{
		{0, 0, 0, 0},
		{30, 10, 20, 1},
		{300, 100, 200, 1},
		{15, 3, 5, 0.3925}, // 0.5*0.5 + 0.35*0.3 + 0.15*0.25
		{1, 0, 0, 0.0167},
		{-4, -1, -9, 0},
	}
	for _, c := range cases {
		if got := AuditFirmRisk(c.recent, c.repeat, c.entities); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("AuditFirmRisk(%d, %d, %d) = %v, want %v", c.recent, c.repeat, c.entities, got, c.want)
		}
	}
}

func TestRepeatViolations(t *testing.T) {
	got := RepeatViolations([]string{"LODR-33", "CARO-3", "LODR-33", "IND-AS-24", "CARO-3", "LODR-33"})
	if want := map[string]int{"LODR-33": 3, "CARO-3": 2}; !maps.Equal(got, want) {
		t.Errorf("RepeatViolations = %v, want %v", got, want)
	}
	if got := RepeatViolations([]string{"a", "b"}); len(got) != 0 {
		t.Errorf("no repeats: got %v", got)
	}
}

func TestFirmHistory_Assess(t *testing.T) {
	a := FirmHistory{
		AuditFirm:        "A & Co",
		RecentViolations: 15, RepeatHighSeverity: 3,
		EntityIDs:     []string{"e1", "e2", "e3", "e4", "e5"},
		ClauseHistory: []string{"CARO_2020", "CARO_2020"},
	}.Assess()
	if a.AuditFirm != "A & Co" || math.Abs(a.RiskScore-0.3925) > 1e-9 {
		t.Errorf("assessment = %+v", a)
	}
	if !maps.Equal(a.RepeatViolations, map[string]int{"CARO_2020": 2}) {
		t.Errorf("repeat violations = %v", a.RepeatViolations)
	}
}

func TestValidateURL(t *testing.T) {
	// WHAT: Only public http(s) targets pass.
	// WHY: Feed URLs come from config and must not reach internal services.
	for _, bad := range []string{
		"ftp://example.org/feed",
		"file:///etc/passwd",
		"http://127.0.0.1/feed",
		"http://10.1.2.3/feed",
		"http://192.168.1.1/",
		"http://[::1]/",
		"http://169.254.169.254/latest/meta-data",
		"http:///nohost",
	} {
		if err := ValidateURL(bad); !errors.Is(err, ErrUnsafeURL) {
			t.Errorf("ValidateURL(%q) = %v, want ErrUnsafeURL", bad, err)
		}
	}
	if err := ValidateURL("https://93.184.216.34/rss"); err != nil {
		t.Errorf("public address rejected: %v", err)
	}
}
