package cli

import (
	"strings"
	"testing"

	"github.com/dashforge/supergrid/pkg/superset"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int
		wantErr bool
	}{
		{"single id", []string{"5"}, []int{5}, false},
		{"multiple ids", []string{"5", "12", "3"}, []int{5, 12, 3}, false},
		{"not a number", []string{"5", "abc"}, nil, true},
		{"empty string", []string{""}, nil, true},
		{"no args", []string{}, []int{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIDs(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseIDs(%v) = %v, want %v", tt.args, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseIDs(%v)[%d] = %d, want %d", tt.args, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePasswordPairs(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{"nil", nil, nil, false},
		{"single pair", []string{"examples=secret"}, map[string]string{"examples": "secret"}, false},
		{"two pairs", []string{"a=1", "b=2"}, map[string]string{"a": "1", "b": "2"}, false},
		{"secret containing equals", []string{"db=p=ss"}, map[string]string{"db": "p=ss"}, false},
		{"empty secret", []string{"db="}, map[string]string{"db": ""}, false},
		{"missing equals", []string{"nope"}, nil, true},
		{"empty name", []string{"=secret"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePasswordPairs(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePasswordPairs(%v) error = %v, wantErr %v", tt.pairs, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parsePasswordPairs(%v) = %v, want %v", tt.pairs, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parsePasswordPairs(%v)[%q] = %q, want %q", tt.pairs, k, got[k], v)
				}
			}
		})
	}
}

func TestDashboardTable(t *testing.T) {
	out := dashboardTable([]*superset.Dashboard{
		{ID: 5, DashboardTitle: "Sales Overview", Slug: "sales", Published: true},
		{ID: 7, DashboardTitle: "Ops"},
	})

	for _, want := range []string{"ID", "Title", "Slug", "Published", "Sales Overview", "sales", "Ops", "5", "7"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}
