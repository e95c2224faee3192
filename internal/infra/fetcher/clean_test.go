package fetcher

import "testing"

func TestRichestBody_ConcatenatesDistinctFields(t *testing.T) {
	got := richestBody("<p>full content</p>", "a short summary")
	want := "<p>full content</p>\n\na short summary"
	if got != want {
		t.Errorf("richestBody() = %q, want %q", got, want)
	}
}

func TestRichestBody_SkipsExactDuplicate(t *testing.T) {
	got := richestBody("same text", "same text")
	want := "same text"
	if got != want {
		t.Errorf("richestBody() = %q, want %q", got, want)
	}
}

func TestRichestBody_SkipsEmptyFields(t *testing.T) {
	got := richestBody("", "only description")
	want := "only description"
	if got != want {
		t.Errorf("richestBody() = %q, want %q", got, want)
	}

	if richestBody("", "") != "" {
		t.Errorf("richestBody() of two empty fields should be empty")
	}
}
