package schema

import (
	"errors"
	"testing"

	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
	"github.com/danmuck/tlvdiag/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func TestLookupCategoryTags(t *testing.T) {
	testlog.Start(t)
	for _, c := range []Category{CategoryMetric, CategoryTrace, CategoryCounter} {
		s, ok := Lookup(tlv.ContextTag(uint8(c)))
		if !ok {
			t.Fatalf("category %s not found", c)
		}
		if s.Category != c {
			t.Fatalf("lookup %s returned %s", c, s.Category)
		}
	}
}

func TestLookupRejectsSubTagsAndNonContextTags(t *testing.T) {
	testlog.Start(t)
	for _, tag := range []tlv.Tag{
		tlv.ContextTag(TagLabel),
		tlv.ContextTag(TagTimestamp),
		tlv.ContextTag(200),
		tlv.AnonymousTag(),
		tlv.CommonProfileTag(1),
		tlv.ProfileTag(0xFFF1, 1, 0),
		{Control: tlv.TagCommonProfile4, Number: 256 + 1},
	} {
		if _, ok := Lookup(tag); ok {
			t.Fatalf("tag %s should not resolve to a category", tag)
		}
	}
}

func TestSchemaColumnsPerCategory(t *testing.T) {
	testlog.Start(t)
	want := map[Category][]string{
		CategoryTrace:   {FieldTimestamp, FieldScope, FieldLabel},
		CategoryMetric:  {FieldTimestamp, FieldLabel, FieldValue},
		CategoryCounter: {FieldTimestamp, FieldLabel, FieldCount},
	}
	for c, cols := range want {
		s, _ := ForCategory(c)
		if diff := cmp.Diff(cols, s.Columns()); diff != "" {
			t.Fatalf("%s columns mismatch (-want +got):\n%s", c, diff)
		}
	}
}

func TestCounterCountReadsValueSubTag(t *testing.T) {
	testlog.Start(t)
	s, _ := ForCategory(CategoryCounter)
	for _, f := range s.Fields {
		if f.Name == FieldCount && f.Tag != TagValue {
			t.Fatalf("count field reads tag %d, want VALUE (%d)", f.Tag, TagValue)
		}
	}
}

func TestCategoriesDisplayOrder(t *testing.T) {
	testlog.Start(t)
	got := Categories()
	want := []Category{CategoryTrace, CategoryMetric, CategoryCounter}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	got[0] = CategoryCounter
	if Categories()[0] != CategoryTrace {
		t.Fatalf("Categories exposed internal slice")
	}
	if CategoryCounter.Heading() != "COUNTERS" {
		t.Fatalf("unexpected heading: %s", CategoryCounter.Heading())
	}
}

func TestSingleSetResolvesEveryTag(t *testing.T) {
	testlog.Start(t)
	for _, tag := range []tlv.Tag{tlv.AnonymousTag(), tlv.ContextTag(0), tlv.ContextTag(1), tlv.CommonProfileTag(9)} {
		s, ok := SetSingle.Lookup(tag)
		if !ok || s.Category != CategoryDiagnostic {
			t.Fatalf("tag %s: got %v, %v", tag, s.Category, ok)
		}
	}
	s, _ := ForCategory(CategoryDiagnostic)
	if diff := cmp.Diff([]string{FieldTimestamp, FieldLabel, FieldValue}, s.Columns()); diff != "" {
		t.Fatalf("diagnostic columns mismatch (-want +got):\n%s", diff)
	}
	for _, f := range s.Fields {
		if f.Name == FieldValue && f.Kind != KindNumber {
			t.Fatalf("diagnostic value should keep full precision")
		}
	}
	if diff := cmp.Diff([]Category{CategoryDiagnostic}, SetSingle.Categories()); diff != "" {
		t.Fatalf("single categories mismatch:\n%s", diff)
	}
	if CategoryDiagnostic.Heading() != "DIAGNOSTIC DATA" {
		t.Fatalf("unexpected heading: %s", CategoryDiagnostic.Heading())
	}
	if _, ok := SetCategorized.Lookup(tlv.AnonymousTag()); ok {
		t.Fatalf("categorized set should not resolve anonymous tags")
	}
}

func TestParseSet(t *testing.T) {
	testlog.Start(t)
	for raw, want := range map[string]Set{
		"":            SetCategorized,
		"categorized": SetCategorized,
		" Single ":    SetSingle,
	} {
		got, err := ParseSet(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSet(%q)=%v,%v want %v", raw, got, err, want)
		}
	}
	if _, err := ParseSet("double"); !errors.Is(err, ErrUnknownSet) {
		t.Fatalf("expected ErrUnknownSet, got %v", err)
	}
}
