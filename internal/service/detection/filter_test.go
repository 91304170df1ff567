package detection

import (
	"testing"

	"farmguardian/internal/model"
)

func TestFilterAnimals_AllowList(t *testing.T) {
	raw := []model.RawResult{
		{Label: "wolf", Score: 0.9},
		{Label: "Bird", Score: 0.8},
		{Label: "car", Score: 0.7},
		{Label: "COW", Score: 0.6},
	}

	kept := FilterAnimals(raw)

	if len(kept) != 2 {
		t.Fatalf("Expected 2 results, got %d: %+v", len(kept), kept)
	}
	if kept[0].Label != "Bird" || kept[1].Label != "COW" {
		t.Errorf("Expected [Bird COW], got [%s %s]", kept[0].Label, kept[1].Label)
	}
}

func TestIsAnimal_SubstringMatch(t *testing.T) {
	tests := []struct {
		label    string
		expected bool
	}{
		{"teddy bear", true},
		{"hotdog", true},
		{"Giraffe", true},
		{"person", false},
		{"", false},
		{"truck", false},
	}

	for _, tt := range tests {
		if got := IsAnimal(tt.label); got != tt.expected {
			t.Errorf("IsAnimal(%q) = %v, expected %v", tt.label, got, tt.expected)
		}
	}
}

func TestFilterAnimals_Empty(t *testing.T) {
	if kept := FilterAnimals(nil); len(kept) != 0 {
		t.Errorf("Expected no results, got %d", len(kept))
	}
}

func TestRawBox_Normalize(t *testing.T) {
	box := model.RawBox{XMin: 10, YMin: 20, XMax: 110, YMax: 70}.Normalize()

	expected := model.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}
	if box != expected {
		t.Errorf("Expected %+v, got %+v", expected, box)
	}
}

func TestRawBox_NormalizeInverted(t *testing.T) {
	box := model.RawBox{XMin: 50, YMin: 50, XMax: 40, YMax: 10}.Normalize()

	if box.Width != 0 || box.Height != 0 {
		t.Errorf("Expected zero extent for inverted box, got %+v", box)
	}
}
