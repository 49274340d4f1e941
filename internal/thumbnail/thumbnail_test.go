package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/content"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/storage"
)

// writeTestFont drops the Go regular TTF into a temp file so tests do not
// depend on system font assets.
func writeTestFont(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-font.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o600))
	return path
}

func testRenderer(t *testing.T, store storage.ObjectStore, langs ...string) *Renderer {
	t.Helper()
	fontPath := writeTestFont(t)
	cfg := config.ContentConfig{Watermark: "pressline"}
	for _, lang := range langs {
		cfg.Fonts = append(cfg.Fonts, config.FontConfig{Lang: lang, Path: fontPath})
	}
	return NewRenderer(store, cfg, nil)
}

func testItem(lang content.Lang) content.ContentItem {
	window := content.WeekOf(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC))
	return content.ContentItem{
		Lang:         lang,
		Title:        "Weekly Digest: January 5, 2026",
		Description:  "Highlights, releases and notes for the week.",
		PubDateRange: window,
		ContentKey:   content.ContentKey("content", lang, window),
		ThumbnailKey: content.ThumbnailKey("content", lang, window),
	}
}

func TestRender_FixedDimensions(t *testing.T) {
	store := storage.NewMemStore()
	r := testRenderer(t, store, "en")

	data, err := r.Render(context.Background(), testItem(content.LangEN))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, Width, img.Bounds().Dx())
	require.Equal(t, Height, img.Bounds().Dy())

	obj, err := store.Get(context.Background(), "content/en-digest-2026-01-05.png")
	require.NoError(t, err)
	require.Equal(t, storage.ContentTypePNG, obj.ContentType)
	require.Equal(t, data, obj.Data)
}

func TestRender_LongTitleNeverChangesDimensions(t *testing.T) {
	store := storage.NewMemStore()
	r := testRenderer(t, store, "en")

	item := testItem(content.LangEN)
	item.Title = strings.Repeat("An Exceedingly Long Title ", 8) // ~200 chars

	data, err := r.Render(context.Background(), item)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, Width, img.Bounds().Dx())
	require.Equal(t, Height, img.Bounds().Dy())
}

func TestRender_MissingFontIsRenderError(t *testing.T) {
	store := storage.NewMemStore()
	r := testRenderer(t, store, "en") // no ja font configured

	_, err := r.Render(context.Background(), testItem(content.LangJA))
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryRender))
	require.Equal(t, 0, store.Len(), "nothing may be persisted on failure")
}

func TestRender_UnreadableFontIsRenderError(t *testing.T) {
	store := storage.NewMemStore()
	cfg := config.ContentConfig{
		Watermark: "pressline",
		Fonts:     []config.FontConfig{{Lang: "en", Path: filepath.Join(t.TempDir(), "missing.ttf")}},
	}
	r := NewRenderer(store, cfg, nil)

	_, err := r.Render(context.Background(), testItem(content.LangEN))
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryRender))
}

func TestRender_StoreFailureIsRenderError(t *testing.T) {
	store := storage.NewMemStore()
	injected := errors.New("bucket gone")
	store.FailPuts = injected
	r := testRenderer(t, store, "en")

	_, err := r.Render(context.Background(), testItem(content.LangEN))
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryRender))
	require.ErrorIs(t, err, injected)
}

func TestRender_ReusesFaces(t *testing.T) {
	store := storage.NewMemStore()
	r := testRenderer(t, store, "en")
	ctx := context.Background()

	_, err := r.Render(ctx, testItem(content.LangEN))
	require.NoError(t, err)
	r.mu.Lock()
	after1 := len(r.faces)
	r.mu.Unlock()

	_, err = r.Render(ctx, testItem(content.LangEN))
	require.NoError(t, err)
	r.mu.Lock()
	after2 := len(r.faces)
	r.mu.Unlock()

	require.Equal(t, after1, after2, "second render must reuse cached faces")
	require.Equal(t, 4, after2)
}
