package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/storage"
)

// stubSource lets tests inject drafts and failures.
type stubSource struct {
	draft Draft
	err   error
}

func (s stubSource) Compose(context.Context, Lang, Window) (Draft, error) {
	return s.draft, s.err
}

func testWindow() Window {
	return WeekOf(time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC))
}

func TestGenerate_WritesDeterministicKeys(t *testing.T) {
	store := storage.NewMemStore()
	gen := NewGenerator(store, DigestSource{}, "content", nil)

	item, err := gen.Generate(context.Background(), LangEN, false, testWindow())
	require.NoError(t, err)

	require.Equal(t, LangEN, item.Lang)
	require.Equal(t, "content/en-digest-2026-01-05.md", item.ContentKey)
	require.Equal(t, "content/en-digest-2026-01-05.png", item.ThumbnailKey)
	require.NotEmpty(t, item.Title)
	require.NotEmpty(t, item.Description)
	require.Positive(t, item.WordCount)
	require.GreaterOrEqual(t, item.ReadingTime, time.Minute)

	obj, err := store.Get(context.Background(), item.ContentKey)
	require.NoError(t, err)
	require.Equal(t, storage.ContentTypeMarkdown, obj.ContentType)

	meta, body, err := SplitDocument(obj.Data)
	require.NoError(t, err)
	fm, err := DecodeFrontMatter(meta)
	require.NoError(t, err)
	require.Equal(t, item.Title, fm.Title)
	require.Equal(t, "2026-01-05", fm.Date)
	require.False(t, fm.Draft)
	require.Equal(t, "en-digest-2026-01-05.png", fm.Thumbnail)
	require.Equal(t, "en", fm.Lang)
	require.Contains(t, string(body), "# "+item.Title)
}

func TestGenerate_DraftFlagCarriesThrough(t *testing.T) {
	store := storage.NewMemStore()
	gen := NewGenerator(store, DigestSource{}, "content", nil)

	item, err := gen.Generate(context.Background(), LangJA, true, testWindow())
	require.NoError(t, err)

	obj, err := store.Get(context.Background(), item.ContentKey)
	require.NoError(t, err)
	meta, _, err := SplitDocument(obj.Data)
	require.NoError(t, err)
	fm, err := DecodeFrontMatter(meta)
	require.NoError(t, err)
	require.True(t, fm.Draft)
	require.Equal(t, "ja", fm.Lang)
}

func TestGenerate_IdempotentReRun(t *testing.T) {
	store := storage.NewMemStore()
	gen := NewGenerator(store, DigestSource{}, "content", nil)
	ctx := context.Background()

	first, err := gen.Generate(ctx, LangEN, false, testWindow())
	require.NoError(t, err)
	firstInfo, err := store.Stat(ctx, first.ContentKey)
	require.NoError(t, err)

	second, err := gen.Generate(ctx, LangEN, false, testWindow())
	require.NoError(t, err)
	secondInfo, err := store.Stat(ctx, second.ContentKey)
	require.NoError(t, err)

	require.Equal(t, first.ContentKey, second.ContentKey)
	require.Equal(t, 1, store.Len(), "re-run must overwrite, not accumulate")
	require.Equal(t, firstInfo.ETag, secondInfo.ETag, "identical inputs must produce identical bytes")
}

func TestGenerate_JapaneseWordCount(t *testing.T) {
	store := storage.NewMemStore()
	gen := NewGenerator(store, DigestSource{}, "content", nil)

	item, err := gen.Generate(context.Background(), LangJA, false, testWindow())
	require.NoError(t, err)
	require.Greater(t, item.WordCount, 50, "CJK prose must count by rune, not by space-separated field")
}

func TestGenerate_SourceFailureIsGenerationError(t *testing.T) {
	store := storage.NewMemStore()
	boom := errors.New("upstream offline")
	gen := NewGenerator(store, stubSource{err: boom}, "content", nil)

	_, err := gen.Generate(context.Background(), LangEN, false, testWindow())
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryGeneration))
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, store.Len(), "nothing may be persisted on failure")
}

func TestGenerate_EmptyTitleRejected(t *testing.T) {
	store := storage.NewMemStore()
	gen := NewGenerator(store, stubSource{draft: Draft{
		Title:       "   ",
		Description: "present",
		Sections:    []Section{{Heading: "A", Body: "text"}},
	}}, "content", nil)

	_, err := gen.Generate(context.Background(), LangEN, false, testWindow())
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryGeneration))
	require.Equal(t, 0, store.Len())
}

func TestGenerate_StoreFailureIsGenerationError(t *testing.T) {
	store := storage.NewMemStore()
	injected := errors.New("bucket gone")
	store.FailPuts = injected
	gen := NewGenerator(store, DigestSource{}, "content", nil)

	_, err := gen.Generate(context.Background(), LangEN, false, testWindow())
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryGeneration))
	require.ErrorIs(t, err, injected)
}

func TestGenerate_UnsupportedLangRejected(t *testing.T) {
	gen := NewGenerator(storage.NewMemStore(), DigestSource{}, "content", nil)

	_, err := gen.Generate(context.Background(), Lang("fr"), false, testWindow())
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryGeneration))
}
