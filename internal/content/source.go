package content

import (
	"context"
	"fmt"
)

// Draft is the composed text for one localized digest, before markdown
// assembly and validation.
type Draft struct {
	Title       string
	Description string
	Sections    []Section
}

// Section is one block of the digest body.
type Section struct {
	Heading string
	Body    string
}

// Source composes localized digest text for a publish window.
//
// Compose must be pure: identical (lang, window) inputs yield identical
// drafts. The storage layer relies on that to make re-runs overwrite in
// place instead of accumulating variants.
type Source interface {
	Compose(ctx context.Context, lang Lang, window Window) (Draft, error)
}

// DigestSource is the built-in source: a deterministic weekly digest
// composed from the window alone, localized per language.
type DigestSource struct{}

func (DigestSource) Compose(_ context.Context, lang Lang, window Window) (Draft, error) {
	switch lang {
	case LangEN:
		return enDigest(window), nil
	case LangJA:
		return jaDigest(window), nil
	}
	return Draft{}, fmt.Errorf("no source text for language %q", lang)
}

func enDigest(w Window) Draft {
	edition := w.Start.UTC().Format("January 2, 2006")
	rangeLabel := w.Label(LangEN)
	return Draft{
		Title:       "Weekly Digest: " + edition,
		Description: "Highlights, releases and notes for the week of " + edition + ".",
		Sections: []Section{
			{
				Heading: "Highlights",
				Body: "Welcome to the " + LangEN.DisplayName() + " edition covering " + rangeLabel + ". " +
					"This week's digest gathers the most read stories across the site, with a short summary " +
					"of each so you can catch up in one sitting.",
			},
			{
				Heading: "Releases",
				Body: "Everything shipped during " + rangeLabel + " is listed here, from incremental fixes " +
					"to headline features. Each entry links to its full release notes.",
			},
			{
				Heading: "Notes",
				Body: "Housekeeping and schedule notes for readers. The next edition lands a week after " +
					edition + " under the usual address.",
			},
		},
	}
}

func jaDigest(w Window) Draft {
	start := w.Start.UTC()
	edition := fmt.Sprintf("%d年%d月%d日", start.Year(), int(start.Month()), start.Day())
	rangeLabel := w.Label(LangJA)
	return Draft{
		Title:       "週刊ダイジェスト " + edition,
		Description: edition + "の週の注目記事、リリース情報、お知らせをまとめてお届けします。",
		Sections: []Section{
			{
				Heading: "ハイライト",
				Body: rangeLabel + "の" + LangJA.DisplayName() + "版ダイジェストへようこそ。" +
					"今週よく読まれた記事を要約つきでまとめています。短時間で一週間の動きを追えます。",
			},
			{
				Heading: "リリース",
				Body: rangeLabel + "に公開されたリリースの一覧です。小さな修正から大きな新機能まで、" +
					"それぞれ詳細なリリースノートへのリンクを添えています。",
			},
			{
				Heading: "お知らせ",
				Body:    "編集部からのお知らせと今後の予定です。次号は" + edition + "の一週間後に同じ場所でお届けします。",
			},
		},
	}
}
