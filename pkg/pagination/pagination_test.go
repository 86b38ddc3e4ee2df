package pagination

import "testing"

func TestNormalizeClampsInputs(t *testing.T) {
	p := Normalize(Params{Page: 0, PageSize: 0}, 25, 100)
	if p.Page != 1 || p.PageSize != 25 {
		t.Fatalf("expected defaults 1/25, got %d/%d", p.Page, p.PageSize)
	}

	p = Normalize(Params{Page: 3, PageSize: 500}, 25, 100)
	if p.PageSize != 100 {
		t.Fatalf("expected page size capped at 100, got %d", p.PageSize)
	}

	// fixed page size callers pass the same default and max
	p = Normalize(Params{Page: 2, PageSize: 50}, 5, 5)
	if p.PageSize != 5 {
		t.Fatalf("expected fixed page size 5, got %d", p.PageSize)
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 1, PageSize: 5}
	if got := p.Offset(); got != 0 {
		t.Fatalf("expected offset 0 for first page, got %d", got)
	}
	p.Page = 4
	if got := p.Offset(); got != 15 {
		t.Fatalf("expected offset 15, got %d", got)
	}
}

func TestBuildMeta(t *testing.T) {
	meta := BuildMeta(Params{Page: 1, PageSize: 5}, 12)
	if meta.TotalPages != 3 {
		t.Fatalf("expected 3 pages for 12 rows, got %d", meta.TotalPages)
	}
	if !meta.HasNext {
		t.Fatal("expected more pages after the first")
	}

	meta = BuildMeta(Params{Page: 3, PageSize: 5}, 12)
	if meta.HasNext {
		t.Fatal("expected final page to have no next")
	}

	meta = BuildMeta(Params{Page: 1, PageSize: 5}, 0)
	if meta.TotalPages != 0 || meta.HasNext {
		t.Fatalf("expected empty meta for zero rows, got %+v", meta)
	}
}
