package services

import "testing"

func TestParsePageParams(t *testing.T) {
	cases := []struct {
		rawPage, rawLimit string
		page, limit       int
	}{
		{"", "", 1, DefaultPageSize},
		{"3", "25", 3, 25},
		{"0", "-5", 1, DefaultPageSize},
		{"abc", "xyz", 1, DefaultPageSize},
		{"2", "1000", 2, MaxPageSize},
	}
	for _, tc := range cases {
		page, limit := ParsePageParams(tc.rawPage, tc.rawLimit)
		if page != tc.page || limit != tc.limit {
			t.Errorf("ParsePageParams(%q, %q) = %d, %d; want %d, %d",
				tc.rawPage, tc.rawLimit, page, limit, tc.page, tc.limit)
		}
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	if p.TotalPage != 4 {
		t.Errorf("totalPage: got %d, want 4", p.TotalPage)
	}
	if p.Total != 35 || p.Page != 2 || p.Limit != 10 {
		t.Errorf("unexpected envelope: %+v", p)
	}

	empty := NewPagination(1, 10, 0)
	if empty.TotalPage != 0 {
		t.Errorf("empty totalPage: got %d, want 0", empty.TotalPage)
	}

	exact := NewPagination(1, 10, 30)
	if exact.TotalPage != 3 {
		t.Errorf("exact totalPage: got %d, want 3", exact.TotalPage)
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 10); got != 0 {
		t.Errorf("page 1 offset: got %d", got)
	}
	if got := Offset(4, 25); got != 75 {
		t.Errorf("page 4 offset: got %d", got)
	}
}
