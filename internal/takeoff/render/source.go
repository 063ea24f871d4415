// Package render планирует отрисовку страниц исходного чертежа.
package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ============================================================
// Page collaborator
// ============================================================

// PageInfo: мировой размер страницы. BaseWidth/BaseHeight задают мировые координаты,
// PixelsPerPoint: сколько мировых пикселей приходится на PDF-пункт.
type PageInfo struct {
	Page           int     `json:"page"`
	BaseWidth      float64 `json:"baseWidth"`
	BaseHeight     float64 `json:"baseHeight"`
	PixelsPerPoint float64 `json:"pixelsPerPoint"`
}

// Raster: результат растеризации страницы.
type Raster struct {
	Width  int
	Height int
	Scale  float64
	Data   []byte
}

// PageSource отдаёт размеры и растры страниц.
type PageSource interface {
	PageCount(ctx context.Context) (int, error)
	PageInfo(ctx context.Context, page int) (PageInfo, error)
	RenderPage(ctx context.Context, page int, scale float64) (Raster, error)
}

// ============================================================
// PDF source
// ============================================================

// PDFSource читает размеры страниц PDF через pdfcpu. Один мировой пиксель равен одному пункту.
// Растр содержит только геометрию: пиксели рисует внешний растеризатор.
type PDFSource struct {
	dims []PageInfo
}

// OpenPDF читает PDF с диска.
func OpenPDF(path string) (*PDFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPDF(f)
}

// ReadPDF разбирает PDF и запоминает размеры страниц.
func ReadPDF(rs io.ReadSeeker) (*PDFSource, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("pdfcpu page dims: %w", err)
	}

	src := &PDFSource{dims: make([]PageInfo, len(dims))}
	for i, d := range dims {
		src.dims[i] = PageInfo{Page: i + 1, BaseWidth: d.Width, BaseHeight: d.Height, PixelsPerPoint: 1}
	}
	return src, nil
}

func (s *PDFSource) PageCount(context.Context) (int, error) {
	return len(s.dims), nil
}

func (s *PDFSource) PageInfo(_ context.Context, page int) (PageInfo, error) {
	if page < 1 || page > len(s.dims) {
		return PageInfo{}, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, len(s.dims))
	}
	return s.dims[page-1], nil
}

func (s *PDFSource) RenderPage(ctx context.Context, page int, scale float64) (Raster, error) {
	info, err := s.PageInfo(ctx, page)
	if err != nil {
		return Raster{}, err
	}
	return rasterFor(info, scale), ctx.Err()
}

// Pages возвращает размеры всех страниц.
func (s *PDFSource) Pages() []PageInfo {
	out := make([]PageInfo, len(s.dims))
	copy(out, s.dims)
	return out
}

// ============================================================
// Static source
// ============================================================

// StaticSource: страницы фиксированного размера, например для офлайн-расчётов.
type StaticSource struct {
	Pages []PageInfo
}

func (s StaticSource) PageCount(context.Context) (int, error) {
	return len(s.Pages), nil
}

func (s StaticSource) PageInfo(_ context.Context, page int) (PageInfo, error) {
	if page < 1 || page > len(s.Pages) {
		return PageInfo{}, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, len(s.Pages))
	}
	return s.Pages[page-1], nil
}

func (s StaticSource) RenderPage(ctx context.Context, page int, scale float64) (Raster, error) {
	info, err := s.PageInfo(ctx, page)
	if err != nil {
		return Raster{}, err
	}
	return rasterFor(info, scale), ctx.Err()
}

func rasterFor(info PageInfo, scale float64) Raster {
	return Raster{
		Width:  int(math.Ceil(info.BaseWidth * scale)),
		Height: int(math.Ceil(info.BaseHeight * scale)),
		Scale:  scale,
	}
}
