package registry

import (
	"sort"
	"testing"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

func TestSanitizeUpdate_AllowlistAndCoercions(t *testing.T) {
	sanitized, dropped, err := SanitizeUpdate(models.EntityCandidate, map[string]any{
		"headline":        "  Senior Engineer  ",
		"expected_salary": "$95,000.50",
		"skills":          "Go, Postgres, ",
		"password":        "nope",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sanitized["headline"] != "Senior Engineer" {
		t.Fatalf("expected trimmed headline, got %v", sanitized["headline"])
	}
	if sanitized["expected_salary"] != 95000.50 {
		t.Fatalf("expected parsed currency 95000.50, got %v", sanitized["expected_salary"])
	}
	skills, ok := sanitized["skills"].([]string)
	if !ok {
		t.Fatalf("expected skills coerced to string slice, got %T", sanitized["skills"])
	}
	if len(skills) != 2 || skills[0] != "Go" || skills[1] != "Postgres" {
		t.Fatalf("unexpected skills %v", skills)
	}
	if len(dropped) != 1 || dropped[0] != "password" {
		t.Fatalf("expected password dropped, got %v", dropped)
	}
}

func TestSanitizeUpdate_FailedCoercionDropped(t *testing.T) {
	sanitized, dropped, err := SanitizeUpdate(models.EntityCandidate, map[string]any{
		"expected_salary": "a lot",
		"location":        "Berlin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := sanitized["expected_salary"]; present {
		t.Fatal("expected unparseable salary to be dropped")
	}
	if sanitized["location"] != "Berlin" {
		t.Fatalf("expected good field kept, got %v", sanitized["location"])
	}
	if len(dropped) != 1 || dropped[0] != "expected_salary" {
		t.Fatalf("expected expected_salary reported dropped, got %v", dropped)
	}
}

func TestSanitizeUpdate_NilPassesThrough(t *testing.T) {
	sanitized, dropped, err := SanitizeUpdate(models.EntityCandidate, map[string]any{
		"summary": nil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value, present := sanitized["summary"]
	if !present || value != nil {
		t.Fatalf("expected explicit nil kept, got %v (present=%v)", value, present)
	}
	if len(dropped) != 0 {
		t.Fatalf("expected nothing dropped, got %v", dropped)
	}
}

func TestSanitizeUpdate_UnsupportedEntityType(t *testing.T) {
	_, _, err := SanitizeUpdate(models.EntityType("spaceship"), map[string]any{"a": 1})
	if err == nil || !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCoerceValue_Kinds(t *testing.T) {
	if v, ok := coerceValue(CoerceNumber, "12.5"); !ok || v != 12.5 {
		t.Fatalf("expected 12.5, got %v (ok=%v)", v, ok)
	}
	if _, ok := coerceValue(CoerceNumber, true); ok {
		t.Fatal("expected bool to fail number coercion")
	}

	if v, ok := coerceValue(CoerceBool, "true"); !ok || v != true {
		t.Fatalf("expected true, got %v (ok=%v)", v, ok)
	}
	if _, ok := coerceValue(CoerceBool, "maybe"); ok {
		t.Fatal("expected unparseable bool to fail")
	}

	v, ok := coerceValue(CoerceDate, "2026-04-01")
	if !ok {
		t.Fatal("expected date string to coerce")
	}
	if ts, isTime := v.(time.Time); !isTime || ts.Format("2006-01-02") != "2026-04-01" {
		t.Fatalf("unexpected date value %v", v)
	}
	if _, ok := coerceValue(CoerceDate, "soon"); ok {
		t.Fatal("expected unparseable date to fail")
	}

	v, ok = coerceValue(CoerceTags, []any{"Go", "  ", 42})
	if !ok {
		t.Fatal("expected mixed slice to coerce to tags")
	}
	tags := v.([]string)
	if len(tags) != 2 || tags[0] != "Go" || tags[1] != "42" {
		t.Fatalf("unexpected tags %v", tags)
	}

	if v, ok := coerceValue(CoerceText, float64(7)); !ok || v != "7" {
		t.Fatalf("expected numeric text %q, got %v", "7", v)
	}
}

func TestWritableFields_Candidate(t *testing.T) {
	fields, err := WritableFields(models.EntityCandidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Strings(fields)
	found := false
	for _, f := range fields {
		if f == "expected_salary" {
			found = true
		}
		if f == "email" {
			t.Fatal("expected email to stay read-only")
		}
	}
	if !found {
		t.Fatalf("expected expected_salary in writable set, got %v", fields)
	}
}

func TestWritableKinds_ReturnsCopy(t *testing.T) {
	kinds, err := WritableKinds(models.EntityCandidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kinds["skills"] != CoerceTags {
		t.Fatalf("expected skills kind tags, got %s", kinds["skills"])
	}

	kinds["skills"] = CoerceText
	again, _ := WritableKinds(models.EntityCandidate)
	if again["skills"] != CoerceTags {
		t.Fatal("expected mutation of returned map to not leak into the registry")
	}
}
