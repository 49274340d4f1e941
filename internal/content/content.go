// Package content composes, validates and persists the localized digest
// articles a run publishes: one markdown document per language per publish
// window, written to the content bucket under deterministic keys so that
// re-runs overwrite rather than accumulate.
package content

import (
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Lang identifies a publication language of the site.
type Lang string

const (
	LangEN Lang = "en"
	LangJA Lang = "ja"
)

// SupportedLangs returns the publishable languages in branch order.
func SupportedLangs() []Lang {
	return []Lang{LangEN, LangJA}
}

// ParseLang maps a config or request string onto a supported Lang. Region
// subtags are tolerated ("en-US" resolves to en).
func ParseLang(s string) (Lang, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", s, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return LangEN, nil
	case "ja":
		return LangJA, nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// ParseLangs resolves a configured language list. An empty list falls back
// to every supported language.
func ParseLangs(values []string) ([]Lang, error) {
	if len(values) == 0 {
		return SupportedLangs(), nil
	}
	langs := make([]Lang, 0, len(values))
	for _, s := range values {
		lang, err := ParseLang(s)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

func (l Lang) String() string {
	return string(l)
}

func (l Lang) Valid() bool {
	return l == LangEN || l == LangJA
}

func (l Lang) Tag() language.Tag {
	if l == LangJA {
		return language.Japanese
	}
	return language.English
}

// DisplayName returns the language's own name for itself ("English", "日本語").
func (l Lang) DisplayName() string {
	return display.Self.Name(l.Tag())
}

// ContentItem describes one persisted digest article. ThumbnailKey names the
// object the renderer will write later in the branch; it is set before that
// object exists.
type ContentItem struct {
	Lang         Lang
	Title        string
	Description  string
	PubDateRange Window
	ContentKey   string
	ThumbnailKey string
	WordCount    int
	ReadingTime  time.Duration
}

// Slug returns the deterministic article slug for a language and window.
// Identical inputs always map to the same slug, so a re-run lands on the
// same storage keys.
func Slug(lang Lang, w Window) string {
	return fmt.Sprintf("%s-digest-%s", lang, w.Start.UTC().Format("2006-01-02"))
}

// ContentKey returns the markdown object key under the content root.
func ContentKey(root string, lang Lang, w Window) string {
	return path.Join(root, Slug(lang, w)+".md")
}

// ThumbnailKey returns the thumbnail object key under the content root.
func ThumbnailKey(root string, lang Lang, w Window) string {
	return path.Join(root, Slug(lang, w)+".png")
}
