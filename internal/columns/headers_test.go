// ABOUTME: Tests for header label and index helpers
// ABOUTME: Verifies blank-header labels and case-insensitive lookups
package columns

import (
	"reflect"
	"strings"
	"testing"

	"github.com/harper/facultymatch/internal/errs"
)

func TestHeaderLabel(t *testing.T) {
	headers := []string{" Name ", "", "Email"}
	tests := []struct {
		index int
		want  string
	}{
		{0, "Name"},
		{1, "Column 2"},
		{2, "Email"},
		{5, "Column 6"},
	}
	for _, tt := range tests {
		if got := HeaderLabel(headers, tt.index); got != tt.want {
			t.Errorf("HeaderLabel(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestHeaderIndex_Indexes(t *testing.T) {
	headers := []string{"Name", "", "Research", "name"}
	idx := NewHeaderIndex(headers)

	got, err := idx.Indexes([]string{"research", " NAME ", "column 2", "Name"}, "faculty dataset")
	if err != nil {
		t.Fatalf("Indexes() error = %v", err)
	}
	if !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("Indexes() = %v, want [0 1 2]", got)
	}

	_, err = idx.Indexes([]string{"Missing"}, "faculty dataset")
	if !errs.Is(err, errs.KindConfiguration) {
		t.Fatalf("missing label error kind = %v, want configuration", errs.KindOf(err))
	}
	if !strings.Contains(err.Error(), "'Missing'") {
		t.Errorf("error %q should name the column", err)
	}
}

func TestLabels(t *testing.T) {
	headers := []string{"Name", "", "NAME"}
	got := Labels(headers, []int{1, 0, 2, 9})
	if !reflect.DeepEqual(got, []string{"Column 2", "Name"}) {
		t.Errorf("Labels() = %v", got)
	}
}

func TestClampAndSortedUnique(t *testing.T) {
	if got := Clamp([]int{3, -1, 0, 3, 9, 1}, 4); !reflect.DeepEqual(got, []int{3, 0, 1}) {
		t.Errorf("Clamp() = %v", got)
	}
	if got := SortedUnique([]int{3, 1, 3, 2, 1}); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("SortedUnique() = %v", got)
	}
}

func TestValues(t *testing.T) {
	row := []string{" a ", "", "b"}
	if got := Values(row, []int{2, 1, 0, 7}); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Values() = %v", got)
	}
}
