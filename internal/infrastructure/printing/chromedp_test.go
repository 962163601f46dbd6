package printing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFParams_LetterPortrait(t *testing.T) {
	params := pdfParams(&RenderRequest{
		HTML:      "<html>test</html>",
		PaperSize: PaperLetter,
		Margins:   DefaultMargins(),
	})

	assert.InDelta(t, 8.5, params.PaperWidth, 0.01)
	assert.InDelta(t, 11.0, params.PaperHeight, 0.01)
	assert.InDelta(t, mmToInches(12), params.MarginTop, 0.001)
	assert.False(t, params.Landscape)
	assert.False(t, params.DisplayHeaderFooter)
}

func TestPDFParams_A4Landscape(t *testing.T) {
	params := pdfParams(&RenderRequest{
		HTML:      "<html>test</html>",
		PaperSize: PaperA4,
		Landscape: true,
	})

	assert.InDelta(t, mmToInches(210), params.PaperWidth, 0.01)
	assert.InDelta(t, mmToInches(297), params.PaperHeight, 0.01)
	assert.True(t, params.Landscape)
}

func TestPDFParams_HeaderFooterRaisesMargins(t *testing.T) {
	params := pdfParams(&RenderRequest{
		HTML:       "<p>x</p>",
		PaperSize:  PaperLetter,
		Margins:    Margins{Top: 2, Right: 5, Bottom: 2, Left: 5},
		FooterHTML: "<span class=pageNumber></span>",
	})

	assert.True(t, params.DisplayHeaderFooter)
	assert.InDelta(t, mmToInches(2), params.MarginTop, 0.001, "no header, top margin kept")
	assert.InDelta(t, mmToInches(minHeaderFooterMarginMM), params.MarginBottom, 0.001)
	assert.Equal(t, "<span class=pageNumber></span>", params.FooterTemplate)
}

func TestBuildCompleteHTML(t *testing.T) {
	t.Run("full document passes through", func(t *testing.T) {
		doc := "<!DOCTYPE html><html><body>hi</body></html>"
		assert.Equal(t, doc, buildCompleteHTML(&RenderRequest{HTML: doc}))
	})

	t.Run("fragment is wrapped with escaped title", func(t *testing.T) {
		out := buildCompleteHTML(&RenderRequest{HTML: "<p>hi</p>", Title: "Tees & <Hoodies>"})
		assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
		assert.Contains(t, out, "<title>Tees &amp; &lt;Hoodies&gt;</title>")
		assert.Contains(t, out, "<body><p>hi</p></body>")
	})
}

func TestCountPages(t *testing.T) {
	pdf := []byte("%PDF-1.4\n1 0 obj << /Type /Pages /Count 2 >>\n2 0 obj << /Type /Page >>\n3 0 obj << /Type/Page /Parent 1 0 R >>")
	assert.Equal(t, 2, countPages(pdf))
	assert.Equal(t, 1, countPages([]byte("%PDF-1.4")))
}

func TestPaperSize(t *testing.T) {
	assert.True(t, PaperLetter.IsValid())
	assert.True(t, PaperA4.IsValid())
	assert.False(t, PaperSize("legal").IsValid())
}

func TestChromedpRenderer_ValidatesRequest(t *testing.T) {
	r := NewChromedpRenderer(config.PrintingConfig{Enabled: true, Timeout: time.Second}, nil)
	defer r.Close()

	_, err := r.Render(context.Background(), nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "   "})
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>", PaperSize: "legal"})
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidPaperSize, renderErr.Code)
}

func TestNew_Disabled(t *testing.T) {
	r := New(config.PrintingConfig{Enabled: false}, nil)
	_, err := r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, r.Close())
}

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)

	assert.Equal(t, "chromedp execution failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "empty", NewRenderError(ErrCodeInvalidHTML, "empty", nil).Error())
}
