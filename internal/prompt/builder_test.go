package prompt

import (
	"strings"
	"testing"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

func selectField(key, label string) registry.FieldDescriptor {
	return registry.FieldDescriptor{
		Key:   key,
		Label: label,
		Select: func(v any) any {
			row, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			return row[key]
		},
	}
}

func TestInterpolate_CaseAndWhitespace(t *testing.T) {
	fields := map[string]any{
		"fullName": "Ada Lovelace",
		"stage":    "interview",
	}

	got := Interpolate("Candidate {{FULLNAME}} is in stage {{ stage }}.", fields)
	want := "Candidate Ada Lovelace is in stage interview."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestInterpolate_UnknownPlaceholderStaysLiteral(t *testing.T) {
	got := Interpolate("Hello {{name}}, meet {{unknown}}.", map[string]any{"name": "Ada"})
	want := "Hello Ada, meet {{unknown}}."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestInterpolate_NoRecursiveExpansion(t *testing.T) {
	got := Interpolate("{{a}}", map[string]any{"a": "{{b}}", "b": "boom"})
	if got != "{{b}}" {
		t.Fatalf("expected substituted values to stay literal, got %q", got)
	}
}

func TestStringify(t *testing.T) {
	if got := Stringify(nil); got != "" {
		t.Fatalf("expected empty for nil, got %q", got)
	}
	if got := Stringify([]string{"Go", "SQL"}); got != "Go, SQL" {
		t.Fatalf("expected comma join, got %q", got)
	}
	if got := Stringify([]any{"a", float64(2)}); got != "a, 2" {
		t.Fatalf("expected mixed slice join, got %q", got)
	}
	if got := Stringify(95000.0); got != "95000" {
		t.Fatalf("expected float without tail, got %q", got)
	}
	if got := Stringify(12.5); got != "12.5" {
		t.Fatalf("expected 12.5, got %q", got)
	}
	if got := Stringify(map[string]any{"k": "v"}); !strings.Contains(got, `"k": "v"`) {
		t.Fatalf("expected pretty JSON for map, got %q", got)
	}
}

func TestBuild_CollectionSubstitutedInPlace(t *testing.T) {
	coll := &registry.ResolvedCollection{
		Key:    "invoices",
		Label:  "Invoices",
		Format: models.FormatTable,
		Fields: []registry.FieldDescriptor{selectField("number", "Number")},
		Rows:   []map[string]any{{"number": "INV-1"}},
	}

	got := Build(BuildInput{
		Template:    "Review these:\n{{invoices}}\nThanks.",
		Collections: []*registry.ResolvedCollection{coll},
	})

	if !strings.Contains(got, "## Invoices") {
		t.Fatalf("expected collection heading in output, got %q", got)
	}
	if !strings.HasSuffix(got, "Thanks.") {
		t.Fatalf("expected substituted collection, not appended; got %q", got)
	}
}

func TestBuild_UnreferencedCollectionAppended(t *testing.T) {
	coll := &registry.ResolvedCollection{
		Key:    "tickets",
		Label:  "Support tickets",
		Format: models.FormatTable,
		Fields: []registry.FieldDescriptor{selectField("subject", "Subject")},
		Rows:   []map[string]any{{"subject": "Broken login"}},
	}

	got := Build(BuildInput{
		Template:    "Summarize this customer.",
		Collections: []*registry.ResolvedCollection{coll},
	})

	idx := strings.Index(got, "## Support tickets")
	if idx < 0 {
		t.Fatalf("expected appended collection block, got %q", got)
	}
	if !strings.HasPrefix(got, "Summarize this customer.") {
		t.Fatalf("expected template body first, got %q", got)
	}
}

func TestBuild_ExtraInstructions(t *testing.T) {
	got := Build(BuildInput{
		Template:          "Do the thing.",
		ExtraInstructions: "  Keep it short.  ",
	})
	if !strings.Contains(got, "Additional instructions:\nKeep it short.") {
		t.Fatalf("expected trimmed extra instructions block, got %q", got)
	}

	got = Build(BuildInput{Template: "Do the thing.", ExtraInstructions: "   "})
	if strings.Contains(got, "Additional instructions") {
		t.Fatalf("expected no instructions block for blank input, got %q", got)
	}
}

func TestBuild_StructuredDirective(t *testing.T) {
	mappings := []models.FieldMapping{
		{SourceKey: "summary", TargetField: "summary"},
		{SourceKey: "stage", TargetField: "stage"},
		{SourceKey: "stage", TargetField: "other"},
	}

	got := Build(BuildInput{
		Template:  "Assess the candidate.",
		Operation: models.OperationUpdate,
		Mappings:  mappings,
	})
	if !strings.Contains(got, "Respond ONLY with a valid JSON object containing exactly these keys: stage, summary.") {
		t.Fatalf("expected structured directive with deduplicated sorted keys, got %q", got)
	}

	got = Build(BuildInput{
		Template:  "Assess the candidate.",
		Operation: models.OperationReadOnly,
		Mappings:  mappings,
	})
	if strings.Contains(got, "Respond ONLY") {
		t.Fatalf("expected no directive for read-only action, got %q", got)
	}

	got = Build(BuildInput{
		Template:  "Assess the candidate.",
		Operation: models.OperationUpdate,
	})
	if strings.Contains(got, "Respond ONLY") {
		t.Fatalf("expected no directive without mappings, got %q", got)
	}
}

func TestFormatCollection_EmptyRows(t *testing.T) {
	got := FormatCollection(&registry.ResolvedCollection{
		Key:    "notes",
		Label:  "Interview notes",
		Format: models.FormatBulletList,
	})
	want := "## Interview notes\nNo data available"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatCollection_Table(t *testing.T) {
	got := FormatCollection(&registry.ResolvedCollection{
		Key:    "invoices",
		Label:  "Invoices",
		Format: models.FormatTable,
		Fields: []registry.FieldDescriptor{
			selectField("number", "Number"),
			selectField("status", "Status"),
		},
		Rows: []map[string]any{
			{"number": "INV-1", "status": "paid"},
			{"number": "INV-2", "status": "a\nmultiline"},
		},
	})

	lines := strings.Split(got, "\n")
	if lines[0] != "## Invoices" {
		t.Fatalf("expected heading, got %q", lines[0])
	}
	if lines[1] != "| Number | Status |" {
		t.Fatalf("expected header row, got %q", lines[1])
	}
	if lines[2] != "| --- | --- |" {
		t.Fatalf("expected separator row, got %q", lines[2])
	}
	if lines[4] != "| INV-2 | a multiline |" {
		t.Fatalf("expected newlines flattened in cells, got %q", lines[4])
	}
}

func TestFormatCollection_BulletList(t *testing.T) {
	got := FormatCollection(&registry.ResolvedCollection{
		Key:    "notes",
		Label:  "Interview notes",
		Format: models.FormatBulletList,
		Fields: []registry.FieldDescriptor{
			selectField("author", "Author"),
			selectField("note", "Note"),
		},
		Rows: []map[string]any{
			{"author": "Sam", "note": "Strong on systems design"},
		},
	})
	want := "## Interview notes\n- **Sam**: Note: Strong on systems design"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatCollection_PlainText(t *testing.T) {
	got := FormatCollection(&registry.ResolvedCollection{
		Key:    "history",
		Label:  "Stage history",
		Format: models.FormatPlainText,
		Fields: []registry.FieldDescriptor{
			selectField("from", "From"),
			selectField("to", "To"),
		},
		Rows: []map[string]any{
			{"from": "qualified", "to": "proposal"},
			{"from": "proposal", "to": "won"},
		},
	})
	want := "## Stage history\n1. From: qualified | To: proposal\n2. From: proposal | To: won"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
