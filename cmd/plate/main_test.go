package main

import "testing"

func TestShortChecksum(t *testing.T) {
	tests := []struct {
		name string
		sum  string
		want string
	}{
		{name: "full sha256", sum: "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", want: "9f86d081884c"},
		{name: "exactly twelve", sum: "0123456789ab", want: "0123456789ab"},
		{name: "short", sum: "abc", want: "abc"},
		{name: "empty", sum: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shortChecksum(tt.sum); got != tt.want {
				t.Errorf("shortChecksum(%q) = %q, want %q", tt.sum, got, tt.want)
			}
		})
	}
}
