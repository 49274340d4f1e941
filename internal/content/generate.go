package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/storage"
)

// Generator composes, validates and persists one localized digest per call.
type Generator struct {
	store  storage.ObjectStore
	source Source
	root   string
	logger *slog.Logger
}

func NewGenerator(store storage.ObjectStore, source Source, root string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{store: store, source: source, root: root, logger: logger}
}

// Generate produces the digest for one language and writes its markdown
// document to storage at the deterministic content key. The returned item
// names the thumbnail key before that object exists; the renderer writes it
// later in the same branch.
//
// Identical (lang, window) inputs land on the same key, so a re-run
// overwrites in place.
func (g *Generator) Generate(ctx context.Context, lang Lang, isDraft bool, window Window) (ContentItem, error) {
	if !lang.Valid() {
		return ContentItem{}, perrors.GenerationFailed(string(lang), fmt.Errorf("unsupported language %q", lang))
	}

	draft, err := g.source.Compose(ctx, lang, window)
	if err != nil {
		return ContentItem{}, perrors.GenerationFailed(string(lang), err)
	}

	title := NormalizeInline(draft.Title)
	description := NormalizeInline(draft.Description)
	if title == "" {
		return ContentItem{}, perrors.GenerationFailed(string(lang), fmt.Errorf("composed draft has an empty title"))
	}
	if description == "" {
		return ContentItem{}, perrors.GenerationFailed(string(lang), fmt.Errorf("composed draft has an empty description"))
	}

	body := renderBody(title, draft.Sections)
	stats, err := analyzeBody(body, lang)
	if err != nil {
		return ContentItem{}, perrors.GenerationFailed(string(lang), err)
	}

	slug := Slug(lang, window)
	item := ContentItem{
		Lang:         lang,
		Title:        title,
		Description:  description,
		PubDateRange: window,
		ContentKey:   ContentKey(g.root, lang, window),
		ThumbnailKey: ThumbnailKey(g.root, lang, window),
		WordCount:    stats.WordCount,
		ReadingTime:  stats.ReadingTime,
	}

	doc, err := EncodeDocument(FrontMatter{
		Title:       title,
		Description: description,
		Date:        window.StartDate(),
		Draft:       isDraft,
		Thumbnail:   slug + ".png",
		Lang:        string(lang),
	}, body)
	if err != nil {
		return ContentItem{}, perrors.GenerationFailed(string(lang), err)
	}

	if err := g.store.Put(ctx, item.ContentKey, doc, storage.ContentTypeMarkdown); err != nil {
		return ContentItem{}, perrors.GenerationFailed(string(lang), err)
	}

	g.logger.Info("content generated",
		logfields.Lang(string(lang)),
		logfields.ObjectKey(item.ContentKey),
		slog.Int("word_count", stats.WordCount),
	)
	return item, nil
}

// renderBody assembles the markdown body: the title as a top-level heading,
// a language-neutral jump-link line, then the sections.
func renderBody(title string, sections []Section) []byte {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n")

	if len(sections) > 1 {
		links := make([]string, 0, len(sections))
		for _, s := range sections {
			links = append(links, fmt.Sprintf("[%s](#%s)", s.Heading, Slugify(s.Heading)))
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(links, " · "))
		b.WriteString("\n")
	}

	for _, s := range sections {
		b.WriteString("\n## ")
		b.WriteString(s.Heading)
		b.WriteString("\n\n")
		b.WriteString(s.Body)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
