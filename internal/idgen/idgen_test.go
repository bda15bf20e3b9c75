package idgen

import (
	"testing"

	"github.com/google/uuid"
)

func TestSequence(t *testing.T) {
	s := NewSequence("n")
	for _, want := range []string{"n1", "n2", "n3"} {
		if got := s.NewID(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestUUID(t *testing.T) {
	var g Generator = UUID{}
	a, b := g.NewID(), g.NewID()
	if a == b {
		t.Fatal("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", a, err)
	}
}

func TestShort(t *testing.T) {
	if got := Short(UUID{}, 4); len(got) != 4 {
		t.Errorf("expected 4 chars, got %q", got)
	}
	if got := Short(NewSequence("x"), 4); got != "x1" {
		t.Errorf("expected x1, got %q", got)
	}
}
