package cli

import (
	"strings"
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		n    int
		noun string
		want string
	}{
		{0, "device", "0 devices"},
		{1, "device", "1 device"},
		{2, "connection", "2 connections"},
	}
	for _, tt := range tests {
		if got := count(tt.n, tt.noun); got != tt.want {
			t.Errorf("count(%d, %q) = %q, want %q", tt.n, tt.noun, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    [][]string
		dim     []int
		want    []string
	}{
		{"headers only", []string{"ID", "NAME"}, nil, nil, []string{"ID", "NAME"}},
		{"rows", []string{"ID", "NAME"}, [][]string{{"office", "Office LAN"}, {"lab", "Lab"}}, nil,
			[]string{"office", "Office LAN", "lab"}},
		{"dimmed column", []string{"ID", "UPDATED"}, [][]string{{"office", "2026-10-18"}}, []int{1},
			[]string{"office", "2026-10-18"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderTable(tt.headers, tt.rows, tt.dim...)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("table missing %q:\n%s", want, out)
				}
			}
			if !strings.HasPrefix(out, "╭") {
				t.Errorf("table should use a rounded border:\n%s", out)
			}
		})
	}
}
