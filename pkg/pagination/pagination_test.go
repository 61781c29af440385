package pagination

import (
	"testing"

	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/store"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{2, 1, 2},
		{101, 25, 5},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.size); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestBoundsHoldForAnyRequest(t *testing.T) {
	for total := 0; total <= 23; total++ {
		for size := 1; size <= 7; size++ {
			c := New(nil, size)
			c.SetTotal(total)
			for _, req := range []int{-3, 0, 1, 2, 5, 100} {
				c.SetPage(req)
				if p := c.Page(); p < 1 || p > c.TotalPages() {
					t.Fatalf("total=%d size=%d SetPage(%d) → page %d outside 1..%d", total, size, req, p, c.TotalPages())
				}
			}
		}
	}
}

func TestWindowAndClamp(t *testing.T) {
	rows := []string{"first", "second"}
	c := New(nil, 1)
	c.SetTotal(len(rows))
	c.SetPage(2)

	got := Slice(rows, c.Page(), c.PageSize())
	if len(got) != 1 || got[0] != "second" {
		t.Errorf("window = %v, want [second]", got)
	}

	c.SetPage(3)
	if c.Page() != 2 {
		t.Errorf("SetPage(3) clamped to %d, want 2", c.Page())
	}
}

func TestSetTotal_ClampsAfterShrink(t *testing.T) {
	c := New(nil, 10)
	c.SetTotal(95)
	c.SetPage(10)
	if !c.SetTotal(31) {
		t.Error("SetTotal(31) should report a change")
	}
	if c.Page() != 4 {
		t.Errorf("page after shrink = %d, want 4", c.Page())
	}
	c.SetTotal(0)
	if c.Page() != 1 {
		t.Errorf("page after empty = %d, want 1", c.Page())
	}
}

func TestUnknownTotalDoesNotClamp(t *testing.T) {
	nav, _ := store.ParseQuery("p=3&size=25")
	c := New(nav, 10)
	if c.Page() != 3 || c.PageSize() != 25 {
		t.Fatalf("restored state = %+v", c.State())
	}
	c.SetPage(7)
	if c.Page() != 7 {
		t.Errorf("page before any total = %d, want 7", c.Page())
	}
}

func TestSetPageSize(t *testing.T) {
	nav, _ := store.ParseQuery("")
	c := New(nav, 10)
	c.SetTotal(200)
	c.SetPage(4)

	if err := c.SetPageSize(25); err != nil {
		t.Fatalf("SetPageSize(25) error: %v", err)
	}
	if c.Page() != 1 || c.State().CustomSizeMode {
		t.Errorf("after preset size: %+v", c.State())
	}
	if got := nav.Encode(); got != "?p=1&size=25" {
		t.Errorf("nav = %q", got)
	}

	if err := c.SetPageSize(7); err != nil {
		t.Fatalf("SetPageSize(7) error: %v", err)
	}
	if !c.State().CustomSizeMode {
		t.Error("size 7 should enable custom mode")
	}
	if err := c.SetPageSize(0); err == nil {
		t.Error("SetPageSize(0) should fail")
	}
}

func TestNewIgnoresGarbageParams(t *testing.T) {
	nav, _ := store.ParseQuery("p=abc&size=-4")
	c := New(nav, 50)
	if c.Page() != 1 || c.PageSize() != 50 {
		t.Errorf("state = %+v, want page 1 size 50", c.State())
	}
}

func TestObserveSignature(t *testing.T) {
	c := New(nil, 10)
	c.SetTotal(100)
	c.SetPage(3)

	sig := Signature("", model.FilterSet{}, nil)
	if c.ObserveSignature(sig) || c.Page() != 3 {
		t.Error("first observation must not reset the page")
	}
	if c.ObserveSignature(Signature("", model.FilterSet{Conjunction: model.ConjunctionAnd}, []model.SortRule{})) {
		t.Error("equivalent signature should not reset")
	}

	c.SetPageSize(25)
	c.SetPage(2)
	if c.ObserveSignature(sig) {
		t.Error("a size change alone must not look like a signature change")
	}

	if !c.ObserveSignature(Signature("ana", model.FilterSet{}, nil)) || c.Page() != 1 {
		t.Errorf("query change should reset to page 1, page = %d", c.Page())
	}
}

func TestRangeAndNavigation(t *testing.T) {
	c := New(nil, 10)
	c.SetTotal(23)
	if from, to := c.Range(); from != 1 || to != 10 {
		t.Errorf("Range() = %d..%d, want 1..10", from, to)
	}
	c.LastPage()
	if from, to := c.Range(); from != 21 || to != 23 {
		t.Errorf("Range() on last page = %d..%d, want 21..23", from, to)
	}
	if c.HasNext() || !c.HasPrev() {
		t.Error("last page navigation flags wrong")
	}
	if c.NextPage() {
		t.Error("NextPage on last page should be a no-op")
	}
	c.PrevPage()
	c.FirstPage()
	if c.Page() != 1 {
		t.Errorf("FirstPage() → %d", c.Page())
	}

	empty := New(nil, 10)
	empty.SetTotal(0)
	if from, to := empty.Range(); from != 0 || to != 0 {
		t.Errorf("empty Range() = %d..%d", from, to)
	}
}
