package layout

import (
	"regexp"
	"strings"
	"testing"
)

var idPattern = regexp.MustCompile(`^[A-Z]+-[0-9A-Za-z]{10}$`)

func TestNewID(t *testing.T) {
	kinds := []Kind{KindTab, KindTabs, KindRow, KindColumn, KindChart, KindMarkdown, KindDivider, KindHeader}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			id := NewID(kind)
			if !strings.HasPrefix(id, string(kind)+"-") {
				t.Errorf("NewID(%s) = %q, want %s- prefix", kind, id, kind)
			}
			if !idPattern.MatchString(id) {
				t.Errorf("NewID(%s) = %q, want kind tag plus 10 alphanumerics", kind, id)
			}
		})
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewID(KindChart)
		if seen[id] {
			t.Fatalf("NewID generated duplicate %q", id)
		}
		seen[id] = true
	}
}
