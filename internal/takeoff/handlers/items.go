package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"

	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/repository"
)

// ============================================================
// Items Handler
// ============================================================

type ItemsHandler struct {
	repo *repository.Repository
}

func NewItemsHandler(repo *repository.Repository) *ItemsHandler {
	return &ItemsHandler{repo: repo}
}

type itemRequest struct {
	ID         string `json:"id"`
	SystemType string `json:"systemType"`
	Category   string `json:"category"`
	ItemName   string `json:"itemName"`
	Size       string `json:"size"`
}

func (r itemRequest) item() models.Item {
	return models.Item{ID: r.ID, SystemType: r.SystemType, Category: r.Category, ItemName: r.ItemName, Size: r.Size}
}

func (h *ItemsHandler) List(c fiber.Ctx) error {
	items, err := h.repo.ListItems(c.Context())
	if err != nil {
		log.Errorw("list items failed", "err", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list items"})
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *ItemsHandler) Create(c fiber.Ctx) error {
	req, err := decodeItem(c)
	if err != nil {
		return badRequest(c, err)
	}
	it, err := h.repo.CreateItem(c.Context(), req.item())
	if err != nil {
		return itemError(c, err)
	}
	log.Infof("item created: %s", it.ID)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"item": it})
}

func (h *ItemsHandler) Update(c fiber.Ctx) error {
	req, err := decodeItem(c)
	if err != nil {
		return badRequest(c, err)
	}
	it, err := h.repo.UpdateItem(c.Context(), c.Params("id"), req.item())
	if err != nil {
		return itemError(c, err)
	}
	return c.JSON(fiber.Map{"item": it})
}

func (h *ItemsHandler) Delete(c fiber.Ctx) error {
	if err := h.repo.DeleteItem(c.Context(), c.Params("id")); err != nil {
		return itemError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func decodeItem(c fiber.Ctx) (itemRequest, error) {
	var req itemRequest
	if len(c.Body()) == 0 {
		return req, errors.New("empty body")
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return req, errors.New("invalid json")
	}
	return req, nil
}

func itemError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidInput):
		return badRequest(c, err)
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "item not found"})
	}
	log.Errorw("item request failed", "path", c.Path(), "err", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
