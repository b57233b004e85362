package domain

import "testing"

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare number", "9198765432", "9198765432@c.us"},
		{"already canonical", "9198765432@c.us", "9198765432@c.us"},
		{"formatted number", "+91 98765-432", "9198765432@c.us"},
		{"group address untouched", "1234567890@g.us", "1234567890@g.us"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAddress(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAddressIdempotent(t *testing.T) {
	inputs := []string{"9198765432", "+1 (555) 000-1234", "abc@g.us"}
	for _, in := range inputs {
		once := NormalizeAddress(in)
		twice := NormalizeAddress(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeAddresses(t *testing.T) {
	got := NormalizeAddresses([]string{"15550001111", "", "15550002222@c.us"})
	want := []string{"15550001111@c.us", "15550002222@c.us"}
	if len(got) != len(want) {
		t.Fatalf("expected %d addresses, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("address %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsGroupAddress(t *testing.T) {
	if !IsGroupAddress("123@g.us") {
		t.Error("expected 123@g.us to be a group address")
	}
	if IsGroupAddress("123@c.us") {
		t.Error("expected 123@c.us to not be a group address")
	}
}
