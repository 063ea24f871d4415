package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"

	"takeoff/internal/takeoff/measure"
	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/overlay"
	"takeoff/internal/takeoff/render"
	"takeoff/internal/takeoff/repository"
	"takeoff/internal/takeoff/scale"
	"takeoff/internal/takeoff/service"
)

// ============================================================
// Takeoff Handler
// ============================================================

type TakeoffHandler struct {
	repo     *repository.Repository
	storage  *service.FileStorage
	renderer *overlay.Renderer
}

func NewTakeoffHandler(repo *repository.Repository, storage *service.FileStorage) *TakeoffHandler {
	return &TakeoffHandler{
		repo:     repo,
		storage:  storage,
		renderer: overlay.NewRenderer(overlay.DefaultStyle()),
	}
}

// GetTakeoff отдаёт сохранённую разметку или null.
func (h *TakeoffHandler) GetTakeoff(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return badRequest(c, err)
	}

	doc, err := h.repo.GetTakeoff(c.Context(), key)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(fiber.Map{"takeoff": nil})
	}
	if err != nil {
		log.Errorw("load takeoff failed", "key", key.String(), "err", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load takeoff"})
	}
	return c.JSON(fiber.Map{"takeoff": doc})
}

// PutTakeoff целиком заменяет разметку документа.
func (h *TakeoffHandler) PutTakeoff(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return badRequest(c, err)
	}
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	doc, err := models.Decode(c.Body())
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	if err := h.repo.Save(c.Context(), key, doc); err != nil {
		log.Errorw("save takeoff failed", "key", key.String(), "err", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save takeoff"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Totals считает итоги по позициям для страницы или всего документа.
func (h *TakeoffHandler) Totals(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return badRequest(c, err)
	}
	rep, err := h.report(c, key)
	if err != nil {
		return h.fail(c, key, err)
	}
	return c.JSON(rep)
}

// ExportCSV отдаёт итоги в CSV.
func (h *TakeoffHandler) ExportCSV(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return badRequest(c, err)
	}
	rep, err := h.report(c, key)
	if err != nil {
		return h.fail(c, key, err)
	}

	var buf bytes.Buffer
	if err := measure.WriteCSV(&buf, rep); err != nil {
		return h.fail(c, key, err)
	}

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Attachment(measure.Filename(key, rep.Scope))
	return c.Send(buf.Bytes())
}

// Overlay отдаёт SVG-слой разметки страницы. Размер берётся из исходного чертежа,
// а при его отсутствии из параметров width/height.
func (h *TakeoffHandler) Overlay(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return badRequest(c, err)
	}
	page, err := positiveInt(c.Params("page"), "page")
	if err != nil {
		return badRequest(c, err)
	}

	width, height, err := h.pageSize(c.Context(), key, page, c.Query("width"), c.Query("height"))
	if err != nil {
		return h.fail(c, key, err)
	}

	doc, err := h.repo.Load(c.Context(), key)
	if err != nil {
		return h.fail(c, key, err)
	}

	svg, err := h.renderer.Render(overlay.Page{
		Width:    width,
		Height:   height,
		Strokes:  doc.Strokes(page),
		Selected: c.Query("selected"),
	})
	if err != nil {
		return h.fail(c, key, err)
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

// Pages отдаёт число страниц и их мировые размеры.
func (h *TakeoffHandler) Pages(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return badRequest(c, err)
	}
	src, err := h.storage.Source(key)
	if err != nil {
		return h.fail(c, key, err)
	}
	pages := src.Pages()
	return c.JSON(fiber.Map{"pageCount": len(pages), "pages": pages})
}

// ============================================================
// Helpers
// ============================================================

var errBadParam = errors.New("bad parameter")

func (h *TakeoffHandler) report(c fiber.Ctx, key models.DocumentKey) (measure.Report, error) {
	scope, ok := measure.ParseScope(c.Query("scope"))
	if !ok {
		return measure.Report{}, fmt.Errorf("%w: unknown scope %q", errBadParam, c.Query("scope"))
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := positiveInt(raw, "page")
		if err != nil {
			return measure.Report{}, err
		}
		page = n
	}

	doc, err := h.repo.Load(c.Context(), key)
	if err != nil {
		return measure.Report{}, err
	}
	items, err := h.repo.ListItems(c.Context())
	if err != nil {
		return measure.Report{}, err
	}

	rs, err := h.renderScale(c.Context(), key, page, c.Query("renderScale"))
	if err != nil {
		return measure.Report{}, err
	}
	m := scale.NewModel(doc.Scale)
	m.SetRenderScale(rs)

	var u *float64
	if v, ok := m.UnitsPerPx(); ok {
		u = &v
	}
	doc.Scale = m.Config()
	return measure.Aggregate(doc, measure.Query{Scope: scope, Page: page}, items, u), nil
}

// renderScale: явный параметр запроса либо плотность страницы исходника (1 без исходника).
func (h *TakeoffHandler) renderScale(ctx context.Context, key models.DocumentKey, page int, raw string) (float64, error) {
	if raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%w: invalid renderScale %q", errBadParam, raw)
		}
		return v, nil
	}
	info, err := h.storage.PageInfo(ctx, key, page)
	if err != nil || info.PixelsPerPoint <= 0 {
		return 1, nil
	}
	return info.PixelsPerPoint, nil
}

func (h *TakeoffHandler) pageSize(ctx context.Context, key models.DocumentKey, page int, rawW, rawH string) (float64, float64, error) {
	if rawW != "" || rawH != "" {
		w, errW := strconv.ParseFloat(rawW, 64)
		hh, errH := strconv.ParseFloat(rawH, 64)
		if errW != nil || errH != nil || w <= 0 || hh <= 0 {
			return 0, 0, fmt.Errorf("%w: width and height must be positive numbers", errBadParam)
		}
		return w, hh, nil
	}
	info, err := h.storage.PageInfo(ctx, key, page)
	if err != nil {
		return 0, 0, err
	}
	return info.BaseWidth, info.BaseHeight, nil
}

func (h *TakeoffHandler) fail(c fiber.Ctx, key models.DocumentKey, err error) error {
	switch {
	case errors.Is(err, errBadParam):
		return badRequest(c, err)
	case errors.Is(err, service.ErrSourceNotFound), errors.Is(err, render.ErrPageOutOfRange), errors.Is(err, repository.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	log.Errorw("takeoff request failed", "key", key.String(), "path", c.Path(), "err", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func parseKey(c fiber.Ctx) (models.DocumentKey, error) {
	projectID, err := strconv.ParseInt(c.Params("projectId"), 10, 64)
	if err != nil || projectID <= 0 {
		return models.DocumentKey{}, fmt.Errorf("%w: invalid projectId", errBadParam)
	}
	fileID, err := strconv.ParseInt(c.Params("fileId"), 10, 64)
	if err != nil || fileID <= 0 {
		return models.DocumentKey{}, fmt.Errorf("%w: invalid fileId", errBadParam)
	}
	return models.DocumentKey{ProjectID: projectID, FileID: fileID}, nil
}

func positiveInt(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadParam, name, raw)
	}
	return n, nil
}

func badRequest(c fiber.Ctx, err error) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}
