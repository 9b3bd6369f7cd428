package resolver

import (
	"reflect"
	"testing"

	"github.com/canytam/bindery/internal/book"
	"github.com/canytam/bindery/internal/extract"
	"github.com/canytam/bindery/internal/home"
	"github.com/canytam/bindery/internal/source"
)

// fakeAdapter declares chapters directly, optionally newest-first.
type fakeAdapter struct {
	refs        []source.ChapterRef
	newestFirst bool
}

func (f fakeAdapter) Name() string                                      { return "fake" }
func (f fakeAdapter) BookURL(id string) string                          { return "https://fake/" + id }
func (f fakeAdapter) ParseBook(string) (source.BookInfo, error)         { return source.BookInfo{}, nil }
func (f fakeAdapter) ChapterListSelector() string                       { return "body" }
func (f fakeAdapter) ParseChapters(string) ([]source.ChapterRef, error) {
	return append([]source.ChapterRef(nil), f.refs...), nil
}
func (f fakeAdapter) NewestFirst() bool                                 { return f.newestFirst }
func (f fakeAdapter) Strategies() []extract.Strategy                    { return nil }
func (f fakeAdapter) ReadySelectors() []string                          { return nil }
func (f fakeAdapter) BackSelector() string                              { return "a.back" }

var threeRefs = []source.ChapterRef{
	{Handle: "a#c1", Name: "ch1"},
	{Handle: "a#c2", Name: "ch2"},
	{Handle: "a#c3", Name: "ch3"},
}

func TestAll(t *testing.T) {
	t.Run("reading order with indices", func(t *testing.T) {
		chapters, err := All("<html></html>", fakeAdapter{refs: threeRefs})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got []string
		for _, ch := range chapters {
			got = append(got, ch.Name)
		}
		if want := []string{"ch1", "ch2", "ch3"}; !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		for i, ch := range chapters {
			if ch.Index != i+1 {
				t.Errorf("chapter %d has index %d", i, ch.Index)
			}
		}
	})

	t.Run("newest-first sources are reversed", func(t *testing.T) {
		chapters, err := All("<html></html>", fakeAdapter{refs: threeRefs, newestFirst: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if chapters[0].Name != "ch3" || chapters[2].Name != "ch1" {
			t.Errorf("expected reversed order, got %v", chapters)
		}
		if chapters[0].Index != 1 {
			t.Errorf("indices must follow reading order, got %d", chapters[0].Index)
		}
	})
}

func TestPending(t *testing.T) {
	newHome := func(t *testing.T) *home.Dir {
		t.Helper()
		dir, err := home.New(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return dir
	}

	adapter := fakeAdapter{refs: threeRefs}

	t.Run("filters chapters with existing artifacts", func(t *testing.T) {
		dir := newHome(t)
		chapters, _ := All("", adapter)

		// Two of three chapters already discovered.
		for _, ch := range chapters[:2] {
			path := dir.ImageListPath("fake", "b_1", ch)
			if err := home.WriteArtifact(path, []byte("u\n")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		pending := Pending(chapters, "fake", "b_1", dir, false)
		if len(pending) != 1 || pending[0].Name != "ch3" {
			t.Errorf("expected only ch3 pending, got %v", pending)
		}
	})

	t.Run("overwrite keeps all chapters", func(t *testing.T) {
		dir := newHome(t)
		chapters, _ := All("", adapter)
		for _, ch := range chapters {
			path := dir.ImageListPath("fake", "b_1", ch)
			if err := home.WriteArtifact(path, []byte("u\n")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		pending := Pending(chapters, "fake", "b_1", dir, true)
		if len(pending) != 3 {
			t.Errorf("expected 3 pending with overwrite, got %d", len(pending))
		}
	})

	t.Run("deterministic for identical state", func(t *testing.T) {
		dir := newHome(t)
		chapters, _ := All("", adapter)

		first := Pending(chapters, "fake", "b_1", dir, false)
		second := Pending(chapters, "fake", "b_1", dir, false)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("pending list not deterministic: %v vs %v", first, second)
		}
	})
}

func TestResolve(t *testing.T) {
	dir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending, err := Resolve("", fakeAdapter{refs: threeRefs}, dir, "b_1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("expected all 3 chapters pending on fresh state, got %d", len(pending))
	}
	for _, ch := range pending {
		if ch.Status != book.StatusPending {
			t.Errorf("chapter %d status = %s, want %s", ch.Index, ch.Status, book.StatusPending)
		}
	}
}
