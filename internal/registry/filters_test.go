package registry

import (
	"testing"
)

var testFilterDescs = []FilterDescriptor{
	{Key: "status", Label: "Status", Type: FilterEnum, Options: []string{"open", "closed"}},
	{Key: "active", Label: "Active", Type: FilterBoolean},
	{Key: "createdAt", Label: "Created", Type: FilterDateRange},
	{Key: "reviewer", Label: "Reviewer", Type: FilterText},
}

func TestParseFilters_Typed(t *testing.T) {
	parsed := ParseFilters(testFilterDescs, map[string]string{
		"status":    "Closed",
		"active":    "true",
		"reviewer":  "  sam  ",
		"createdAt": "2026-01-01..2026-02-01",
	})

	if parsed["status"].Enum != "closed" {
		t.Fatalf("expected canonical enum %q, got %q", "closed", parsed["status"].Enum)
	}
	if !parsed["active"].Bool {
		t.Fatal("expected boolean true")
	}
	if parsed["reviewer"].Text != "sam" {
		t.Fatalf("expected trimmed text, got %q", parsed["reviewer"].Text)
	}
	r := parsed["createdAt"]
	if r.From.Format("2006-01-02") != "2026-01-01" || r.To.Format("2006-01-02") != "2026-02-01" {
		t.Fatalf("unexpected range %v..%v", r.From, r.To)
	}
}

func TestParseFilters_DateRangeShapes(t *testing.T) {
	cases := map[string]struct {
		value    string
		wantFrom string
		wantTo   string
	}{
		"open ended from": {"2026-01-15..", "2026-01-15", ""},
		"open ended to":   {"..2026-01-15", "", "2026-01-15"},
		"single date":     {"2026-01-15", "2026-01-15", ""},
		"rfc3339":         {"2026-01-15T10:30:00Z..", "2026-01-15", ""},
	}

	for name, tc := range cases {
		parsed := ParseFilters(testFilterDescs, map[string]string{"createdAt": tc.value})
		fv, ok := parsed["createdAt"]
		if !ok {
			t.Fatalf("%s: expected filter to parse", name)
		}
		gotFrom := ""
		if !fv.From.IsZero() {
			gotFrom = fv.From.Format("2006-01-02")
		}
		gotTo := ""
		if !fv.To.IsZero() {
			gotTo = fv.To.Format("2006-01-02")
		}
		if gotFrom != tc.wantFrom || gotTo != tc.wantTo {
			t.Fatalf("%s: expected %q..%q, got %q..%q", name, tc.wantFrom, tc.wantTo, gotFrom, gotTo)
		}
	}
}

func TestParseFilters_UnparseableTreatedAsAbsent(t *testing.T) {
	parsed := ParseFilters(testFilterDescs, map[string]string{
		"status":    "nonexistent",
		"active":    "kinda",
		"createdAt": "not-a-date..also-not",
		"unknown":   "whatever",
		"reviewer":  "   ",
	})
	if len(parsed) != 0 {
		t.Fatalf("expected all bad values dropped, got %v", parsed)
	}
	if parsed.Has("status") {
		t.Fatal("expected unmatched enum to be absent")
	}
}

func TestParseFilters_EmptyInput(t *testing.T) {
	parsed := ParseFilters(testFilterDescs, nil)
	if len(parsed) != 0 {
		t.Fatalf("expected empty result, got %v", parsed)
	}
}
