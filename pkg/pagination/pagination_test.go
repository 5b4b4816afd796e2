package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, PageSize: DefaultPageSize}},
		{Params{Page: -3, PageSize: -1}, Params{Page: 1, PageSize: 1}},
		{Params{Page: 4, PageSize: 500}, Params{Page: 4, PageSize: MaxPageSize}},
		{Params{Page: 2, PageSize: 20}, Params{Page: 2, PageSize: 20}},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestOffsetAndMeta(t *testing.T) {
	p := Params{Page: 3, PageSize: 10}
	if p.Offset() != 20 || p.Limit() != 10 {
		t.Fatalf("unexpected offset/limit %d/%d", p.Offset(), p.Limit())
	}

	meta := NewMeta(p, 21)
	if meta.TotalPages != 3 || meta.Total != 21 || meta.Page != 3 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if NewMeta(Params{}, 0).TotalPages != 0 {
		t.Fatalf("expected zero pages for empty result")
	}
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams("2", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Page != 2 || p.PageSize != DefaultPageSize {
		t.Fatalf("unexpected params %+v", p)
	}
	if _, err := ParseParams("x", "10"); err == nil {
		t.Fatalf("expected invalid page error")
	}
	if _, err := ParseParams("1", "ten"); err == nil {
		t.Fatalf("expected invalid pageSize error")
	}
}
