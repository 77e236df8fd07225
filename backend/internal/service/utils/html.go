package utils

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var imgSrcRegex = regexp.MustCompile(`<img\b[^>]*?\ssrc="([^"]*)"`)

// editorEntities undoes the entity escaping some rich-text editors apply
// before submitting, so the sanitizer sees real markup.
var editorEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">")

type HTMLSanitizer struct {
	threadPolicy  *bluemonday.Policy
	commentPolicy *bluemonday.Policy
	strictPolicy  *bluemonday.Policy
	md            goldmark.Markdown
}

func NewHTMLSanitizer() *HTMLSanitizer {
	thread := bluemonday.UGCPolicy()
	thread.AllowDataURIImages()

	comment := bluemonday.UGCPolicy()
	comment.AllowElements("del")

	md := goldmark.New(
		goldmark.WithRendererOptions(gmhtml.WithUnsafe(), gmhtml.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)

	return &HTMLSanitizer{
		threadPolicy:  thread,
		commentPolicy: comment,
		strictPolicy:  bluemonday.StrictPolicy(),
		md:            md,
	}
}

// SanitizeThreadBody keeps user-generated-content markup including images,
// data URI images among them.
func (s *HTMLSanitizer) SanitizeThreadBody(raw string) string {
	return strings.TrimSpace(s.threadPolicy.Sanitize(editorEntities.Replace(raw)))
}

// RenderComment renders markdown and sanitizes the resulting html.
func (s *HTMLSanitizer) RenderComment(raw string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(raw), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(s.commentPolicy.Sanitize(buf.String())), nil
}

// StripTags returns the visible text of html.
func (s *HTMLSanitizer) StripTags(h string) string {
	return strings.TrimSpace(html.UnescapeString(s.strictPolicy.Sanitize(h)))
}

// ImageSources lists img sources of sanitized html, in document order.
func (s *HTMLSanitizer) ImageSources(h string) []string {
	matches := imgSrcRegex.FindAllStringSubmatch(h, -1)
	srcs := make([]string, 0, len(matches))
	for _, m := range matches {
		srcs = append(srcs, html.UnescapeString(m[1]))
	}
	return srcs
}

// ReplaceImageSource swaps the first img source equal to oldSrc.
func (s *HTMLSanitizer) ReplaceImageSource(h, oldSrc, newSrc string) string {
	return strings.Replace(h,
		`src="`+html.EscapeString(oldSrc)+`"`,
		`src="`+html.EscapeString(newSrc)+`"`,
		1)
}
