package audit

import (
	"errors"
	"os"
	"time"

	"rse-auditor/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for audit runs and results.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the audit routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)

	group := app.Group("/audit")
	group.Post("/runs/:rse", h.HandleTriggerRun)
	group.Get("/runs/:rse", h.HandleRunStatus)
	group.Get("/results", h.HandleListResults)
	group.Get("/results/:name", h.HandleDownloadResult)
}

// HandleHealth reports service liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleTriggerRun starts a background audit for an RSE. An optional
// date query parameter (YYYY-MM-DD) pins the storage dump to audit;
// without it the newest dump is used.
func (h *Handler) HandleTriggerRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	rse := c.Params("rse")

	var date time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid date, expected YYYY-MM-DD",
			})
		}
		date = parsed
	}

	run := h.service.Trigger(rse, date)
	l.Info("Audit run triggered",
		zap.String("rse", rse),
		zap.String("run_id", run.ID.String()))

	return c.Status(fiber.StatusAccepted).JSON(run)
}

// HandleRunStatus returns the most recent run for an RSE.
func (h *Handler) HandleRunStatus(c *fiber.Ctx) error {
	run, ok := h.service.Status(c.Params("rse"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no run for this RSE",
		})
	}
	return c.JSON(run)
}

// HandleListResults lists the result files on disk.
func (h *Handler) HandleListResults(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	results, err := h.service.ListResults()
	if err != nil {
		l.Error("Listing results failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"results": results})
}

// HandleDownloadResult streams one result file.
func (h *Handler) HandleDownloadResult(c *fiber.Ctx) error {
	path, err := h.service.ResultPath(c.Params("name"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "result not found"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendFile(path)
}
