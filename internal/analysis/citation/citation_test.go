package citation

import "testing"

func TestNormalizeBareURL(t *testing.T) {
	got := Normalize(Decode([]any{"https://a.com/x"}))
	if len(got) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(got))
	}
	want := Citation{Title: "a.com", URL: "https://a.com/x", Domain: "a.com", Snippet: ""}
	if got[0] != want {
		t.Fatalf("unexpected citation: %+v", got[0])
	}
}

func TestNormalizeBareURLWithBadEscape(t *testing.T) {
	got := Normalize(Decode([]any{"https://a.com/100%zz"}))
	want := Citation{Title: "a.com", URL: "https://a.com/100%zz", Domain: "a.com", Snippet: ""}
	if got[0] != want {
		t.Fatalf("unexpected citation: %+v", got[0])
	}
}

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"https://a.com/x":            "a.com",
		"https://a.com/100%zz":       "a.com",
		"https://user:pw@b.com/x":    "user:pw@b.com",
		"http://c.net:8080?q=1":      "c.net:8080",
		"  https://d.org#frag":       "d.org",
		"//e.io/path":                "e.io",
		"a.com/x":                    "",
		"mailto:someone@example.com": "",
		"http://[::1":                "",
		"":                           "",
	}

	for in, want := range cases {
		if got := hostOf(in); got != want {
			t.Fatalf("hostOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePlaceholderTitleUsesDomain(t *testing.T) {
	got := Normalize(Decode([]any{map[string]any{"title": "Source #1", "domain": "b.com"}}))
	if got[0].Title != "b.com" {
		t.Fatalf("expected title b.com, got %q", got[0].Title)
	}
}

func TestNormalizePlaceholderTitleKeptWithoutDomain(t *testing.T) {
	got := Normalize(Decode([]any{map[string]any{"title": "SOURCE #2"}}))
	if got[0].Title != "SOURCE #2" {
		t.Fatalf("expected placeholder title to survive, got %q", got[0].Title)
	}
}

func TestNormalizeObjectFieldFallbacks(t *testing.T) {
	got := Normalize(Decode([]any{
		map[string]any{
			"source_url":  "https://news.example.org/story",
			"name":        "",
			"id":          "story-1",
			"description": "a summary",
		},
	}))

	c := got[0]
	if c.URL != "https://news.example.org/story" {
		t.Fatalf("unexpected url %q", c.URL)
	}
	if c.Domain != "news.example.org" {
		t.Fatalf("unexpected domain %q", c.Domain)
	}
	if c.Title != "story-1" {
		t.Fatalf("unexpected title %q", c.Title)
	}
	if c.Snippet != "a summary" {
		t.Fatalf("unexpected snippet %q", c.Snippet)
	}
}

func TestNormalizeNumericID(t *testing.T) {
	got := Normalize(Decode([]any{map[string]any{"id": float64(3)}}))
	if got[0].Title != "3" {
		t.Fatalf("expected numeric id title, got %q", got[0].Title)
	}
}

func TestNormalizeFallbackTitleUsesInputPosition(t *testing.T) {
	got := Normalize(Decode([]any{float64(42), "", map[string]any{}}))
	if len(got) != 2 {
		t.Fatalf("expected non-mapping number to be dropped, got %d items", len(got))
	}
	if got[0].Title != "Source 2" {
		t.Fatalf("expected Source 2, got %q", got[0].Title)
	}
	if got[1].Title != "Source 3" {
		t.Fatalf("expected Source 3, got %q", got[1].Title)
	}
}

func TestNormalizeLengthAndTitleInvariant(t *testing.T) {
	inputs := [][]any{
		nil,
		{},
		{"https://x.io", nil, true, []any{"nested"}, map[string]any{"url": "not a url"}},
		{map[string]any{"title": ""}, "::::", "https://y.dev/a?b=c", float64(0)},
	}

	for _, items := range inputs {
		want := 0
		for _, item := range items {
			switch item.(type) {
			case string, map[string]any:
				want++
			}
		}

		got := Normalize(Decode(items))
		if len(got) != want {
			t.Fatalf("input %v: expected %d citations, got %d", items, want, len(got))
		}
		for _, c := range got {
			if c.Title == "" {
				t.Fatalf("input %v: empty title in %+v", items, c)
			}
		}
	}
}

func TestDecodeDiscriminatesOnce(t *testing.T) {
	raws := Decode([]any{"https://a.com", map[string]any{"url": "https://b.com"}, 7.0})
	kinds := []Kind{KindURL, KindObject, KindOther}
	for i, k := range kinds {
		if raws[i].Kind != k {
			t.Fatalf("item %d: expected kind %d, got %d", i, k, raws[i].Kind)
		}
	}
}
