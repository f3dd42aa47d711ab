package checklist

import (
	"regexp"
	"strings"
)

var (
	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>\n?`)
	emptyBlockRe = regexp.MustCompile(`(?i)<div><br\s*/?></div>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
)

// SanitizeTitle turns rich-text title markup into plain text: line breaks
// become newlines, empty blocks vanish, remaining tags are stripped,
// &nbsp; becomes a space and the result is trimmed.
func SanitizeTitle(markup string) string {
	s := lineBreakRe.ReplaceAllString(markup, "\n")
	s = emptyBlockRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.TrimSpace(s)
}

// TitleBuffer is the editable title: a draft plus the last committed
// value. Nothing leaves the buffer until Commit.
type TitleBuffer struct {
	committed string
	draft     string
}

func NewTitleBuffer(committed string) TitleBuffer {
	return TitleBuffer{committed: committed, draft: committed}
}

func (b *TitleBuffer) Draft() string     { return b.draft }
func (b *TitleBuffer) Committed() string { return b.committed }
func (b *TitleBuffer) Dirty() bool       { return b.draft != b.committed }

func (b *TitleBuffer) Edit(raw string) { b.draft = raw }

// Revert drops the draft.
func (b *TitleBuffer) Revert() { b.draft = b.committed }

// Commit sanitizes the draft. An empty or unchanged result reverts the
// draft and reports false; otherwise the sanitized title becomes the
// committed value.
func (b *TitleBuffer) Commit() (string, bool) {
	plain := SanitizeTitle(b.draft)
	if plain == "" || plain == b.committed {
		b.Revert()
		return "", false
	}
	b.committed, b.draft = plain, plain
	return plain, true
}

// Rebase moves the committed value to the server copy. An untouched
// draft follows it; an in-progress edit is kept.
func (b *TitleBuffer) Rebase(committed string) {
	dirty := b.Dirty()
	b.committed = committed
	if !dirty {
		b.draft = committed
	}
}
