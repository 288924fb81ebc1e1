package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		region   string
		expected string
		wantErr  bool
	}{
		{"10 digits plain", "2125551234", "US", "+12125551234", false},
		{"10 digits with dashes", "212-555-1234", "US", "+12125551234", false},
		{"10 digits with parens", "(212) 555-1234", "US", "+12125551234", false},
		{"E.164 passthrough", "+12125551234", "US", "+12125551234", false},
		{"E.164 with spaces", "+1 212 555 1234", "US", "+12125551234", false},
		{"leading whitespace", "  2125551234  ", "US", "+12125551234", false},
		{"empty string", "", "US", "", true},
		{"too short", "555", "US", "", true},
		{"letters", "not-a-number", "US", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input, tt.region)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
