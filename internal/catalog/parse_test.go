// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dupetable/dupetable/internal/issue"
)

func TestKindFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"items.json", KindStructured, false},
		{"ITEMS.JSON", KindStructured, false},
		{"list.txt", KindLines, false},
		{"list.csv", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := KindFromFilename(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("KindFromFilename(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("KindFromFilename(%q) = %q, want %q", tt.name, got, tt.want)
			}
			if err != nil {
				if !errors.Is(err, issue.ErrValidation) {
					t.Errorf("error %v does not wrap ErrValidation", err)
				}
				if want := tt.name + " (unsupported format)"; err.Error() != want {
					t.Errorf("error = %q, want %q", err.Error(), want)
				}
			}
		})
	}
}

func TestParseLines(t *testing.T) {
	t.Parallel()

	content := "minecraft:stone\n# comment\n\n// another\r\n  oak_planks  \nBad Item\ndiamond_sword\nstone\n"
	got, err := Parse([]byte(content), KindLines)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := Extraction{
		Items:      []ItemID{"stone", "oak_planks", "diamond_sword", "stone"},
		Candidates: 5,
		Rejected:   1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStructured(t *testing.T) {
	t.Parallel()

	content := `{
		"name": "demo",
		"items": ["minecraft:stone", 42, "Bad", "oak_log:2"],
		"groups": [
			{"items": ["iron_ingot"]},
			{"nested": {"items": ["\"gold_ingot\""]}}
		],
		"other": {"items": "not a list"}
	}`

	got, err := Parse([]byte(content), KindStructured)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	// Keys are walked in sorted order: groups, items, name, other.
	want := Extraction{
		Items:      []ItemID{"iron_ingot", "gold_ingot", "stone", "oak_log"},
		Candidates: 5,
		Rejected:   1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStructuredTopLevelList(t *testing.T) {
	t.Parallel()

	got, err := Parse([]byte(`[{"items": ["stone"]}, ["x"], "loose"]`), KindStructured)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if diff := cmp.Diff([]ItemID{"stone"}, got.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFileMalformedJSON(t *testing.T) {
	t.Parallel()

	got, err := ParseFile("broken.json", []byte(`{"items": [`))
	if err == nil {
		t.Fatal("ParseFile() succeeded, want error")
	}
	if !errors.Is(err, issue.ErrParse) {
		t.Errorf("error %v does not wrap ErrParse", err)
	}
	var pe *issue.ParseError
	if !errors.As(err, &pe) || pe.Source != "broken.json" {
		t.Errorf("ParseError source not set: %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("items = %v, want none", got.Items)
	}
}

func TestParseUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := Parse(nil, Kind("yaml")); !errors.Is(err, issue.ErrValidation) {
		t.Errorf("Parse() error = %v, want ErrValidation", err)
	}
}

func TestItemSet(t *testing.T) {
	t.Parallel()

	got := ItemSet([]ItemID{"stone", "apple", "stone"}, nil, []ItemID{"apple", "oak_log"})
	want := []ItemID{"apple", "oak_log", "stone"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ItemSet() mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkStopsDescent(t *testing.T) {
	t.Parallel()

	tree := map[string]any{
		"skip": map[string]any{"deep": "x"},
		"keep": map[string]any{"deep": "y"},
	}
	var seen []string
	Walk(tree, func(key string, _ any) bool {
		seen = append(seen, key)
		return key != "skip"
	})

	want := []string{"", "keep", "deep", "skip"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}
