package handlers

import (
	"github.com/gofiber/fiber/v3"

	"takeoff/internal/takeoff/repository"
	"takeoff/internal/takeoff/service"
)

// Register подключает маршруты сервиса к приложению.
func Register(app *fiber.App, repo *repository.Repository, storage *service.FileStorage) {
	health := NewHealthHandler(repo)
	takeoffs := NewTakeoffHandler(repo, storage)
	items := NewItemsHandler(repo)

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/ready", health.ReadinessProbe)
	app.Get("/health/startup", health.StartupProbe)

	// ============================================================
	// Docs Routes
	// ============================================================

	app.Get("/docs", SwaggerUI)
	app.Get("/docs/openapi.yaml", SwaggerSpec)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	const doc = "/takeoffs/project/:projectId/file/:fileId"
	api.Get(doc, takeoffs.GetTakeoff)
	api.Put(doc, takeoffs.PutTakeoff)
	api.Get(doc+"/totals", takeoffs.Totals)
	api.Get(doc+"/export.csv", takeoffs.ExportCSV)
	api.Get(doc+"/pages/:page/overlay.svg", takeoffs.Overlay)

	api.Get("/files/project/:projectId/file/:fileId/pages", takeoffs.Pages)

	api.Get("/items", items.List)
	api.Post("/items", items.Create)
	api.Put("/items/:id", items.Update)
	api.Delete("/items/:id", items.Delete)
}
