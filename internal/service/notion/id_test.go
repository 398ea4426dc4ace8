package notion

import "testing"

func TestCompactIDRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		uuid    string
		compact string
	}{
		{
			name:    "lowercase",
			uuid:    "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
			compact: "a1b2c3d4e5f64a7b8c9d0e1f2a3b4c5d",
		},
		{
			name:    "uppercase normalized",
			uuid:    "A1B2C3D4-E5F6-4A7B-8C9D-0E1F2A3B4C5D",
			compact: "a1b2c3d4e5f64a7b8c9d0e1f2a3b4c5d",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			compact, err := UUIDToCompactID(test.uuid)
			if err != nil {
				t.Fatalf("UUIDToCompactID: %v", err)
			}
			if compact != test.compact {
				t.Errorf("UUIDToCompactID = %q, want %q", compact, test.compact)
			}

			uuid, err := CompactIDToUUID(compact)
			if err != nil {
				t.Fatalf("CompactIDToUUID: %v", err)
			}

			back, err := UUIDToCompactID(uuid)
			if err != nil {
				t.Fatalf("UUIDToCompactID round trip: %v", err)
			}
			if back != compact {
				t.Errorf("round trip = %q, want %q", back, compact)
			}
		})
	}
}

func TestCompactIDToUUIDRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, id := range []string{"", "not-a-uuid", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := CompactIDToUUID(id); err == nil {
			t.Errorf("CompactIDToUUID(%q): expected error", id)
		}
	}
}

func TestIsCompactID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		id   string
		want bool
	}{
		{"a1b2c3d4e5f64a7b8c9d0e1f2a3b4c5d", true},
		{"A1B2C3D4E5F64A7B8C9D0E1F2A3B4C5D", true},
		{"a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d", false},
		{"a1b2c3d4e5f64a7b8c9d0e1f2a3b4c5", false},
		{"g1b2c3d4e5f64a7b8c9d0e1f2a3b4c5d", false},
		{"42", false},
		{"", false},
	}

	for _, test := range tests {
		if got := IsCompactID(test.id); got != test.want {
			t.Errorf("IsCompactID(%q) = %v, want %v", test.id, got, test.want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		id   string
		want bool
	}{
		{"42", true},
		{"0", true},
		{"", false},
		{"4a", false},
		{"-1", false},
		{"hello-world", false},
	}

	for _, test := range tests {
		if got := IsNumeric(test.id); got != test.want {
			t.Errorf("IsNumeric(%q) = %v, want %v", test.id, got, test.want)
		}
	}
}
