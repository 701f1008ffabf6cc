package providers_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/certifier/internal/providers"
)

func TestDedupMerge(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		lists [][]string
		want  []string
	}{
		{
			name:  "primary retained first",
			limit: 8,
			lists: [][]string{
				{"Encrypt data at rest", "Rotate keys quarterly"},
				{"Encrypt all data at rest with AES", "Add rate limiting"},
			},
			want: []string{"Encrypt data at rest", "Rotate keys quarterly", "Add rate limiting"},
		},
		{
			name:  "substring words match",
			limit: 8,
			lists: [][]string{
				{"Log approvals"},
				{"Logging approval events"},
			},
			want: []string{"Log approvals"},
		},
		{
			name:  "shared filler words are not overlap",
			limit: 8,
			lists: [][]string{
				{"Enable audit logging for all approvals"},
				{"Require two managers for all approvals"},
			},
			want: []string{"Enable audit logging for all approvals", "Require two managers for all approvals"},
		},
		{
			name:  "blank and repeated items dropped",
			limit: 8,
			lists: [][]string{{"  ", "Review access", "Review access"}},
			want:  []string{"Review access"},
		},
		{
			name:  "limit enforced",
			limit: 2,
			lists: [][]string{{"Alpha one"}, {"Bravo two"}, {"Charlie three"}},
			want:  []string{"Alpha one", "Bravo two"},
		},
		{
			name:  "nil input",
			limit: 8,
			lists: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := providers.DedupMerge(tt.limit, tt.lists...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"encrypt data", "encrypt data", 1},
		{"encrypt data", "rotate keys", 0},
		{"two managers approve", "managers approve payments", 2.0 / 3.0},
		{"", "", 1},
		{"word", "", 0},
		{"all approvals", "allow approvals", 0.5},
	}

	for _, tt := range tests {
		if got := providers.Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 1},
		{"one empty", []string{"x y z"}, nil, 0},
		{"full", []string{"Audit approvals"}, []string{"Audit every approval"}, 1},
		{"half", []string{"Audit approvals", "Encrypt records"}, []string{"Audit approvals"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := providers.Overlap(tt.a, tt.b); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
