package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestText(t *testing.T) {
	doc := parseDoc(t, `<div><h1>  Blue   Lock </h1><h2></h2></div>`)

	got, ok := Text(doc.Find("h1"))
	if !ok || got != "Blue Lock" {
		t.Fatalf("Text(h1) = %q, %v", got, ok)
	}

	if _, ok := Text(doc.Find("h2")); ok {
		t.Fatal("expected ok=false for empty element")
	}
	if _, ok := Text(doc.Find("h3")); ok {
		t.Fatal("expected ok=false for missing element")
	}
}

func TestAttr(t *testing.T) {
	doc := parseDoc(t, `<img src=" cover.jpg " alt="">`)

	got, ok := Attr(doc.Find("img"), "src")
	if !ok || got != "cover.jpg" {
		t.Fatalf("Attr(src) = %q, %v", got, ok)
	}

	if _, ok := Attr(doc.Find("img"), "alt"); ok {
		t.Fatal("expected ok=false for blank attribute")
	}
	if _, ok := Attr(doc.Find("img"), "data-src"); ok {
		t.Fatal("expected ok=false for missing attribute")
	}
}

func TestBetween(t *testing.T) {
	page := "header Synopsis  a story\n about  football Genres Action, Sports Sources x"

	synopsis, ok := Between(page, "Synopsis", "Genres")
	if !ok || synopsis != "a story about football" {
		t.Fatalf("Between synopsis = %q, %v", synopsis, ok)
	}

	tags, ok := Between(page, "Genres", "Sources")
	if !ok || tags != "Action, Sports" {
		t.Fatalf("Between tags = %q, %v", tags, ok)
	}

	if _, ok := Between(page, "Missing", "Genres"); ok {
		t.Fatal("expected ok=false when first delimiter absent")
	}
	if _, ok := Between(page, "Sources", "Nowhere"); ok {
		t.Fatal("expected ok=false when second delimiter absent")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("Action, Sports, , Drama ", ",")
	if len(got) != 3 || got[0] != "Action" || got[1] != "Sports" || got[2] != "Drama" {
		t.Fatalf("SplitList = %v", got)
	}
	if SplitList("   ", ",") != nil {
		t.Fatal("expected nil for blank input")
	}
}
