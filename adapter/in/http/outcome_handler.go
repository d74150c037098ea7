package http

import (
	"time"

	"leadflow/core/domain"
	"leadflow/core/service/outcome"
	"leadflow/pkg/apperr"
	"leadflow/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// OutcomeHandler handles HTTP requests for the outcome stage machine.
type OutcomeHandler struct {
	machine        *outcome.Machine
	noResponseDays int
}

// NewOutcomeHandler creates a new OutcomeHandler.
func NewOutcomeHandler(machine *outcome.Machine, noResponseDays int) *OutcomeHandler {
	if noResponseDays <= 0 {
		noResponseDays = 14
	}
	return &OutcomeHandler{machine: machine, noResponseDays: noResponseDays}
}

// Register registers outcome stage routes
func (h *OutcomeHandler) Register(router fiber.Router) {
	leads := router.Group("/leads")
	leads.Post("/:id/stage", h.Transition)
	leads.Get("/:id/stage/next", h.NextStages)
	leads.Get("/:id/stage/history", h.History)

	router.Post("/outcomes/no-response-sweep", h.NoResponseSweep)
}

type transitionRequest struct {
	Stage string `json:"stage"`
	Notes string `json:"notes"`
}

// Transition moves a lead to a new outcome stage. Invalid edges yield 422.
func (h *OutcomeHandler) Transition(c *fiber.Ctx) error {
	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	var req transitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Stage == "" {
		return apperr.MissingField("stage")
	}

	target := domain.OutcomeStage(req.Stage)
	if _, known := domain.StageTransitions[target]; !known {
		return apperr.InvalidInput("stage", "unknown outcome stage")
	}

	record, err := h.machine.Transition(c.Context(), leadID, target, domain.ReasonManual, triggeredBy(c), req.Notes)
	if err != nil {
		return err
	}
	return response.OK(c, toStageRecordResponse(record))
}

// NextStages returns the allowed targets from the lead's current stage.
func (h *OutcomeHandler) NextStages(c *fiber.Ctx) error {
	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	stages, err := h.machine.NextStages(c.Context(), leadID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"next_stages": stages})
}

// History returns the lead's full stage history, newest first.
func (h *OutcomeHandler) History(c *fiber.Ctx) error {
	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	records, err := h.machine.History(c.Context(), leadID)
	if err != nil {
		return err
	}
	return response.OK(c, toStageRecordResponses(records))
}

// NoResponseSweep moves leads stuck in EMAIL_SENT past the window into
// NO_RESPONSE. Intended for a scheduler; callable manually for backfills.
func (h *OutcomeHandler) NoResponseSweep(c *fiber.Ctx) error {
	days := c.QueryInt("days", h.noResponseDays)
	if days <= 0 {
		return apperr.InvalidInput("days", "must be positive")
	}

	moved, err := h.machine.CheckNoResponse(c.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}

	ids := make([]string, len(moved))
	for i, id := range moved {
		ids[i] = id.String()
	}
	return response.OK(c, fiber.Map{
		"moved":    len(ids),
		"lead_ids": ids,
	})
}
