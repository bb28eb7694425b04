package textutil

import "testing"

func TestHTMLToText(t *testing.T) {
	t.Parallel()

	got := HTMLToText(`<p>Bitcoin <b>rallies</b></p><script>x()</script>
<p>again &amp; again</p>`)
	if got != "Bitcoin rallies again & again" {
		t.Fatalf("unexpected text: %q", got)
	}

	if got := HTMLToText("  plain\n text "); got != "plain text" {
		t.Fatalf("unexpected plain text: %q", got)
	}
}

func TestMarkdownToText(t *testing.T) {
	t.Parallel()

	got := MarkdownToText("**ETH** is [up](https://example.org) today\n\n- a\n- b")
	if got != "ETH is up today a b" {
		t.Fatalf("unexpected text: %q", got)
	}
	if MarkdownToText("   ") != "" {
		t.Fatalf("blank markdown must produce empty text")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("héllo world", 5); got != "héllo" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("short", 250); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("zero max must disable truncation, got %q", got)
	}
}
