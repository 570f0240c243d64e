package ids

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	id := New()

	parsed, err := Parse(" " + id.Hex() + " ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !Equal(parsed, id) {
		t.Fatalf("expected %s, got %s", id.Hex(), parsed.Hex())
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "abc", "zzzzzzzzzzzzzzzzzzzzzzzz", "0123456789abcdef0123456789"} {
		if _, err := Parse(raw); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q) expected ErrInvalid, got %v", raw, err)
		}
	}
}

func TestEqualDistinguishesIDs(t *testing.T) {
	a, b := New(), New()
	if Equal(a, b) {
		t.Fatal("distinct ids compared equal")
	}
	if !Equal(a, a) {
		t.Fatal("id not equal to itself")
	}
}

func TestFrom(t *testing.T) {
	id := New()
	if got, ok := From(id); !ok || !Equal(got, id) {
		t.Fatalf("From(value) = %v, %v", got, ok)
	}
	if got, ok := From(&id); !ok || !Equal(got, id) {
		t.Fatalf("From(pointer) = %v, %v", got, ok)
	}
	if _, ok := From(id.Hex()); ok {
		t.Fatal("string must not coerce to an id")
	}
}
