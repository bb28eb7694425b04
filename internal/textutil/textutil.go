// Package textutil turns markup fetched from feeds and forums into plain
// analysis text.
package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/russross/blackfriday/v2"
)

// Collapse trims s and folds every whitespace run into a single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HTMLToText extracts the visible text of an HTML fragment. Input that
// cannot be parsed is returned collapsed as-is.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return Collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Collapse(fragment)
	}
	doc.Find("script, style").Remove()
	return Collapse(doc.Text())
}

// MarkdownToText renders markdown and keeps only its text.
func MarkdownToText(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	rendered := blackfriday.Run([]byte(md), blackfriday.WithNoExtensions())
	return HTMLToText(string(rendered))
}

// Truncate caps s at max runes. A non-positive max disables the cap.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
