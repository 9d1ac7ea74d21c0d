package utils

import "testing"

func TestIsUUID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"7f8d3c1e-2b4a-4c6d-9e0f-1a2b3c4d5e6f", true},
		{"", false},
		{"not-a-uuid", false},
		{"../../etc/passwd", false},
	}

	for _, tt := range tests {
		if got := IsUUID(tt.in); got != tt.want {
			t.Errorf("IsUUID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
