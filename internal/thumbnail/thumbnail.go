// Package thumbnail composites the fixed-size social card PNG for a content
// item and writes it to storage next to the article.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/content"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/storage"
)

// Canvas dimensions are fixed. Long text overflows; the card never grows.
const (
	Width  = 1200
	Height = 630
)

const (
	panelMargin = 24.0
	textLeft    = 72.0
	textWidth   = float64(Width) - 2*textLeft

	titleSize     = 64.0
	descSize      = 32.0
	dateSize      = 24.0
	watermarkSize = 24.0

	titleTop = 150.0
	descTop  = 330.0
	dateTop  = 520.0
)

const (
	colorBackground = "#0e1726"
	colorPanel      = "#16213e"
	colorAccent     = "#e94560"
	colorTitle      = "#f5f5f5"
	colorDesc       = "#c0c4cf"
	colorWatermark  = "#7a8199"
)

type faceKey struct {
	path string
	size float64
}

// Renderer draws social cards using per-language font assets.
type Renderer struct {
	store     storage.ObjectStore
	fonts     map[content.Lang]string
	watermark string
	logger    *slog.Logger

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

func NewRenderer(store storage.ObjectStore, cfg config.ContentConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	fonts := make(map[content.Lang]string, len(cfg.Fonts))
	for _, f := range cfg.Fonts {
		fonts[content.Lang(f.Lang)] = f.Path
	}
	return &Renderer{
		store:     store,
		fonts:     fonts,
		watermark: cfg.Watermark,
		logger:    logger,
		faces:     make(map[faceKey]font.Face),
	}
}

// Render composites the card for item and writes it to storage at
// item.ThumbnailKey. The encoded PNG is also returned.
func (r *Renderer) Render(ctx context.Context, item content.ContentItem) ([]byte, error) {
	lang := string(item.Lang)

	fontPath, ok := r.fonts[item.Lang]
	if !ok {
		return nil, perrors.RenderFailed(lang, fmt.Errorf("no font configured for language %q", item.Lang))
	}

	titleFace, err := r.face(fontPath, titleSize)
	if err != nil {
		return nil, perrors.RenderFailed(lang, err)
	}
	descFace, err := r.face(fontPath, descSize)
	if err != nil {
		return nil, perrors.RenderFailed(lang, err)
	}
	dateFace, err := r.face(fontPath, dateSize)
	if err != nil {
		return nil, perrors.RenderFailed(lang, err)
	}
	watermarkFace, err := r.face(fontPath, watermarkSize)
	if err != nil {
		return nil, perrors.RenderFailed(lang, err)
	}

	dc := gg.NewContext(Width, Height)

	dc.SetHexColor(colorBackground)
	dc.Clear()

	panelW := float64(Width) - 2*panelMargin
	panelH := float64(Height) - 2*panelMargin
	dc.SetHexColor(colorPanel)
	dc.DrawRectangle(panelMargin, panelMargin, panelW, panelH)
	dc.Fill()

	dc.SetHexColor(colorAccent)
	dc.SetLineWidth(6)
	dc.DrawRectangle(panelMargin, panelMargin, panelW, panelH)
	dc.Stroke()

	dc.SetFontFace(titleFace)
	dc.SetHexColor(colorTitle)
	dc.DrawStringWrapped(item.Title, textLeft, titleTop, 0, 0, textWidth, 1.3, gg.AlignLeft)

	dc.SetFontFace(descFace)
	dc.SetHexColor(colorDesc)
	dc.DrawStringWrapped(item.Description, textLeft, descTop, 0, 0, textWidth, 1.4, gg.AlignLeft)

	dc.SetFontFace(dateFace)
	dc.SetHexColor(colorAccent)
	dc.DrawString(item.PubDateRange.Label(item.Lang), textLeft, dateTop)

	if r.watermark != "" {
		dc.SetFontFace(watermarkFace)
		dc.SetHexColor(colorWatermark)
		dc.DrawStringAnchored(r.watermark, float64(Width)-panelMargin-24, float64(Height)-panelMargin-20, 1, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, perrors.RenderFailed(lang, fmt.Errorf("encode png: %w", err))
	}

	if err := r.store.Put(ctx, item.ThumbnailKey, buf.Bytes(), storage.ContentTypePNG); err != nil {
		return nil, perrors.RenderFailed(lang, err)
	}

	r.logger.Info("thumbnail rendered",
		logfields.Lang(lang),
		logfields.ObjectKey(item.ThumbnailKey),
		slog.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

// face returns a cached font.Face for the path and point size. Faces are
// immutable once built and safe to share across renders.
func (r *Renderer) face(path string, size float64) (font.Face, error) {
	key := faceKey{path: path, size: size}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	f, err := gg.LoadFontFace(path, size)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", path, err)
	}
	r.faces[key] = f
	return f, nil
}
