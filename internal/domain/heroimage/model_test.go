package heroimage_test

import (
	"testing"

	"dq/internal/domain/heroimage"
)

func TestHeroImage_Validate(t *testing.T) {
	if err := (&heroimage.HeroImage{Image: "https://cdn/x.jpg"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&heroimage.HeroImage{}).Validate(); err != heroimage.ErrEmptyImage {
		t.Errorf("got %v, want ErrEmptyImage", err)
	}
	if err := (&heroimage.HeroImage{Image: "x", Order: -1}).Validate(); err != heroimage.ErrNegativeOrder {
		t.Errorf("got %v, want ErrNegativeOrder", err)
	}
}

func TestActiveInOrder(t *testing.T) {
	images := []heroimage.HeroImage{
		{ID: "c", Order: 3, IsActive: true},
		{ID: "a", Order: 1, IsActive: true},
		{ID: "hidden", Order: 0, IsActive: false},
		{ID: "b", Order: 1, IsActive: true},
	}
	got := heroimage.ActiveInOrder(images)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d images, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
	if images[0].ID != "c" {
		t.Error("input slice was reordered")
	}
}

func TestHeroImage_Toggle(t *testing.T) {
	h := heroimage.HeroImage{IsActive: true}
	h.Toggle()
	if h.IsActive {
		t.Error("expected inactive after toggle")
	}
}
