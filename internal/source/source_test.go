package source

import (
	"reflect"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("builtin adapters are registered", func(t *testing.T) {
		for _, name := range []string{"8comic", "xmanhua"} {
			a, err := Get(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Name() != name {
				t.Errorf("Get(%q).Name() = %q", name, a.Name())
			}
		}
	})

	t.Run("unknown source is an error", func(t *testing.T) {
		if _, err := Get("nope"); err == nil {
			t.Error("expected error for unknown source")
		}
	})

	t.Run("names are sorted", func(t *testing.T) {
		names := Names()
		for i := 1; i < len(names); i++ {
			if names[i-1] > names[i] {
				t.Errorf("names not sorted: %v", names)
			}
		}
	})
}

func TestEightComic(t *testing.T) {
	var src EightComic

	t.Run("BookURL", func(t *testing.T) {
		if got, want := src.BookURL("12345"), "https://www.8comic.com/html/12345.html"; got != want {
			t.Errorf("BookURL = %q, want %q", got, want)
		}
	})

	t.Run("ParseBook reads meta name", func(t *testing.T) {
		markup := `<html><head><meta name="name" content=" 海賊王 "></head>
			<body><div class="item-col">連載中</div></body></html>`
		info, err := src.ParseBook(markup)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Title != "海賊王" {
			t.Errorf("Title = %q, want 海賊王", info.Title)
		}
		if info.Completed {
			t.Error("book should not be completed")
		}
	})

	t.Run("ParseBook falls back on missing meta", func(t *testing.T) {
		info, err := src.ParseBook(`<html><body></body></html>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Title != "Unknown Comic" {
			t.Errorf("Title = %q, want Unknown Comic", info.Title)
		}
	})

	t.Run("ParseBook detects completed label", func(t *testing.T) {
		markup := `<html><body><span class="label-status">完結</span></body></html>`
		info, err := src.ParseBook(markup)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !info.Completed {
			t.Error("expected completed book")
		}
	})

	t.Run("ParseChapters keeps anchors with ids", func(t *testing.T) {
		markup := `<div id="chapters">
			<a id="c-1">第一話</a>
			<a href="#">skip me</a>
			<a id="c-2"> 第二話 </a>
		</div>`
		refs, err := src.ParseChapters(markup)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []ChapterRef{
			{Handle: "a#c-1", Name: "第一話"},
			{Handle: "a#c-2", Name: "第二話"},
		}
		if !reflect.DeepEqual(refs, want) {
			t.Errorf("expected %v, got %v", want, refs)
		}
	})

	t.Run("declares reading order", func(t *testing.T) {
		if src.NewestFirst() {
			t.Error("8comic lists chapters oldest-first")
		}
	})
}

func TestXManhua(t *testing.T) {
	var src XManhua

	t.Run("BookURL", func(t *testing.T) {
		if got, want := src.BookURL("1bz"), "https://www.xmanhua.com/1bz/"; got != want {
			t.Errorf("BookURL = %q, want %q", got, want)
		}
	})

	t.Run("ParseBook reads title paragraph", func(t *testing.T) {
		markup := `<p class="detail-info-title"> 進擊的巨人 </p>
			<p class="detail-info-tip">狀態：完結</p>`
		info, err := src.ParseBook(markup)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Title != "進擊的巨人" {
			t.Errorf("Title = %q, want 進擊的巨人", info.Title)
		}
		if !info.Completed {
			t.Error("expected completed book")
		}
	})

	t.Run("ParseBook requires a title", func(t *testing.T) {
		if _, err := src.ParseBook(`<html><body></body></html>`); err == nil {
			t.Error("expected error for missing title")
		}
	})

	t.Run("ParseChapters strips decorative spans", func(t *testing.T) {
		markup := `<a class="detail-list-form-item" href="/1bz1/">第1話<span>20P</span></a>
			<a class="detail-list-form-item" href="/1bz2/">第2話<span>18P</span></a>`
		refs, err := src.ParseChapters(markup)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []ChapterRef{
			{Handle: `a[href="/1bz1/"]`, Name: "第1話"},
			{Handle: `a[href="/1bz2/"]`, Name: "第2話"},
		}
		if !reflect.DeepEqual(refs, want) {
			t.Errorf("expected %v, got %v", want, refs)
		}
	})

	t.Run("declares newest-first", func(t *testing.T) {
		if !src.NewestFirst() {
			t.Error("xmanhua lists the latest chapter first")
		}
	})
}
