package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeekOf_MidWeek(t *testing.T) {
	// Wednesday 2026-01-07
	w := WeekOf(time.Date(2026, 1, 7, 15, 30, 0, 0, time.UTC))

	require.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), w.Start)
	require.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), w.End)
	require.Equal(t, time.Monday, w.Start.Weekday())
	require.Equal(t, time.Sunday, w.End.Weekday())
}

func TestWeekOf_MondayAndSundayStayInWeek(t *testing.T) {
	monday := time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 1, 11, 23, 59, 0, 0, time.UTC)

	require.Equal(t, WeekOf(monday).Start, WeekOf(sunday).Start)
	require.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), WeekOf(sunday).Start)
}

func TestWeekOf_YearBoundary(t *testing.T) {
	// Thursday 2026-01-01 belongs to the week starting Monday 2025-12-29.
	w := WeekOf(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))

	require.Equal(t, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), w.Start)
	require.Equal(t, time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), w.End)
}

func TestSlug_DeterministicWithinWeek(t *testing.T) {
	a := WeekOf(time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC))
	b := WeekOf(time.Date(2026, 1, 9, 20, 0, 0, 0, time.UTC))

	require.Equal(t, "en-digest-2026-01-05", Slug(LangEN, a))
	require.Equal(t, Slug(LangEN, a), Slug(LangEN, b))
	require.Equal(t, "ja-digest-2026-01-05", Slug(LangJA, a))
}

func TestContentKeys(t *testing.T) {
	w := WeekOf(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC))

	require.Equal(t, "content/en-digest-2026-01-05.md", ContentKey("content", LangEN, w))
	require.Equal(t, "content/en-digest-2026-01-05.png", ThumbnailKey("content", LangEN, w))
	require.Equal(t, "ja-digest-2026-01-05.md", ContentKey("", LangJA, w))
}

func TestParseLang(t *testing.T) {
	tests := []struct {
		in      string
		want    Lang
		wantErr bool
	}{
		{"en", LangEN, false},
		{"EN", LangEN, false},
		{"en-US", LangEN, false},
		{"ja", LangJA, false},
		{"ja-JP", LangJA, false},
		{"fr", "", true},
		{"not a tag", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLang(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseLangs(t *testing.T) {
	langs, err := ParseLangs([]string{"ja", "en-GB"})
	require.NoError(t, err)
	require.Equal(t, []Lang{LangJA, LangEN}, langs)

	langs, err = ParseLangs(nil)
	require.NoError(t, err)
	require.Equal(t, SupportedLangs(), langs)

	_, err = ParseLangs([]string{"en", "fr"})
	require.ErrorContains(t, err, `unsupported language "fr"`)
}

func TestLangDisplayName(t *testing.T) {
	require.Equal(t, "English", LangEN.DisplayName())
	require.Equal(t, "日本語", LangJA.DisplayName())
}

func TestWindowLabel(t *testing.T) {
	sameYear := WeekOf(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC))
	crossYear := WeekOf(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	require.Equal(t, "Jan 5 - Jan 11, 2026", sameYear.Label(LangEN))
	require.Equal(t, "2026年1月5日〜1月11日", sameYear.Label(LangJA))
	require.Equal(t, "Dec 29, 2025 - Jan 4, 2026", crossYear.Label(LangEN))
	require.Equal(t, "2025年12月29日〜2026年1月4日", crossYear.Label(LangJA))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Highlights", "highlights"},
		{"Café Crème", "cafe-creme"},
		{"  Hello,  World!  ", "hello-world"},
		{"ハイライト", "ハイライト"},
		{"Release 2.0", "release-2-0"},
		{"---", ""},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, Slugify(tc.in), "Slugify(%q)", tc.in)
	}
}

func TestNormalizeInline(t *testing.T) {
	// NFD input ("e" + combining acute) folds to the NFC composed form.
	require.Equal(t, "Café", NormalizeInline("Café"))
	require.Equal(t, "a b", NormalizeInline("  a \n\t b  "))
	require.Equal(t, "", NormalizeInline("   "))
}
