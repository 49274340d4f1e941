package content

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

type bodyStats struct {
	WordCount   int
	ReadingTime time.Duration
}

// analyzeBody parses the markdown body and enforces the publishable shape:
// it must open with a level-1 heading and carry readable text. Word count and
// reading time come from a text walk over the AST so markup never inflates
// the count.
func analyzeBody(body []byte, lang Lang) (bodyStats, error) {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(body))

	hasTopHeading := false
	var plain strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			if node.Level == 1 {
				hasTopHeading = true
			}
		case *gmast.Text:
			plain.Write(node.Segment.Value(body))
			plain.WriteByte('\n')
		}
		return gmast.WalkContinue, nil
	})

	if !hasTopHeading {
		return bodyStats{}, fmt.Errorf("body has no top-level heading")
	}
	words := countWords(plain.String(), lang)
	if words == 0 {
		return bodyStats{}, fmt.Errorf("body has no readable text")
	}
	return bodyStats{WordCount: words, ReadingTime: readingTime(words, lang)}, nil
}

// countWords counts whitespace-separated fields, except for Japanese where
// prose carries no spaces: there each CJK rune counts as one word and any
// embedded latin fragments count by field.
func countWords(text string, lang Lang) int {
	if lang != LangJA {
		return len(strings.Fields(text))
	}
	cjk := 0
	rest := strings.Map(func(r rune) rune {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
			cjk++
			return ' '
		}
		return r
	}, text)
	return cjk + len(strings.Fields(rest))
}

// Reading speeds mirror what static site generators assume: roughly 200
// latin words or 400 CJK characters per minute, floored at one minute.
func readingTime(words int, lang Lang) time.Duration {
	perMinute := 200
	if lang == LangJA {
		perMinute = 400
	}
	minutes := (words + perMinute - 1) / perMinute
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}
