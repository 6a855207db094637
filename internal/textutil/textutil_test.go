package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ep-1", "ep-1"},
		{"why/we?doubt", "why_we_doubt"},
		{"  spaces  and  tabs ", "spaces_and_tabs"},
		{"__a!!b__", "a_b"},
		{"???", ""},
		{"v1.2_final", "v1.2_final"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace(" a\n\tb   c "); got != "a b c" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("short strings must be unchanged, got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("zero limit must yield empty string, got %q", got)
	}
}

func TestFoldKey(t *testing.T) {
	if FoldKey("The  Book of Acts") != FoldKey("the book OF acts") {
		t.Fatal("expected case and spacing to be ignored")
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("SEPT"); got != "Sept" {
		t.Fatalf("unexpected title case %q", got)
	}
}
