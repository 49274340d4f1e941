package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDocument_RoundTrip(t *testing.T) {
	fm := FrontMatter{
		Title:       "Weekly Digest: January 5, 2026",
		Description: "Highlights for the week.",
		Date:        "2026-01-05",
		Draft:       true,
		Thumbnail:   "en-digest-2026-01-05.png",
		Lang:        "en",
	}
	body := []byte("# Weekly Digest\n\nHello.\n")

	doc, err := EncodeDocument(fm, body)
	require.NoError(t, err)

	meta, gotBody, err := SplitDocument(doc)
	require.NoError(t, err)
	require.Equal(t, string(body), string(gotBody))

	got, err := DecodeFrontMatter(meta)
	require.NoError(t, err)
	require.Equal(t, fm, got)
}

func TestSplitDocument_NoFrontMatter(t *testing.T) {
	doc := []byte("# Plain\n\nNo metadata here.\n")

	meta, body, err := SplitDocument(doc)
	require.NoError(t, err)
	require.Nil(t, meta)
	require.Equal(t, string(doc), string(body))
}

func TestSplitDocument_MissingClosingDelimiter(t *testing.T) {
	doc := []byte("---\ntitle: open ended\n")

	_, _, err := SplitDocument(doc)
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}
