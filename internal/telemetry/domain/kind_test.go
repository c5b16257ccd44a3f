package telemetry

import "testing"

func TestKind_ParseRoundTrip(t *testing.T) {
	for _, kind := range AllKinds() {
		parsed, err := ParseKind(kind.String())
		if err != nil {
			t.Fatalf("parse %s: %v", kind, err)
		}
		if parsed != kind {
			t.Fatalf("expected %d, got %d", kind, parsed)
		}
	}
}

func TestKind_ParseUnknown(t *testing.T) {
	if _, err := ParseKind("warp_factor"); err == nil {
		t.Fatal("expected error for unknown kind name")
	}
}

func TestKind_Valid(t *testing.T) {
	if !KindGForce.Valid() {
		t.Fatal("expected g_force to be valid")
	}
	if Kind(999).Valid() {
		t.Fatal("expected kind 999 to be invalid")
	}
}

func TestKind_StringUnknown(t *testing.T) {
	if got := Kind(999).String(); got != "kind(999)" {
		t.Fatalf("expected kind(999), got %s", got)
	}
}
