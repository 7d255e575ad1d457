package utils

import (
	"regexp"
	"testing"
)

func TestParseInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 7},
		{"3", 3},
		{"0", 7},
		{"-2", 7},
		{"abc", 7},
	}
	for _, tc := range cases {
		if got := ParseInt(tc.in, 7); got != tc.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestGenerateOrderID(t *testing.T) {
	pattern := regexp.MustCompile(`^LAB-\d{8}-[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateOrderID()
		if !pattern.MatchString(id) {
			t.Fatalf("order id %q has the wrong shape", id)
		}
		if seen[id] {
			t.Fatalf("duplicate order id %q", id)
		}
		seen[id] = true
	}
}
