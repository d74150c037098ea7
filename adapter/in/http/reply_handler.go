package http

import (
	"leadflow/core/domain"
	"leadflow/core/service/reply"
	"leadflow/pkg/apperr"
	"leadflow/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ReplyHandler handles HTTP requests for inbound reply classification.
type ReplyHandler struct {
	service *reply.Service
}

// NewReplyHandler creates a new ReplyHandler.
func NewReplyHandler(service *reply.Service) *ReplyHandler {
	return &ReplyHandler{service: service}
}

// Register registers reply routes
func (h *ReplyHandler) Register(router fiber.Router) {
	leads := router.Group("/leads")
	leads.Post("/:id/replies", h.Record)
	leads.Get("/:id/replies", h.ListByLead)

	router.Post("/replies/:id/override", h.Override)
}

type recordReplyRequest struct {
	Body string `json:"body"`
}

// Record classifies and stores an inbound reply, returning the classification
// together with any automatic stage change it triggered.
func (h *ReplyHandler) Record(c *fiber.Ctx) error {
	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	var req recordReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.RecordReply(c.Context(), leadID, req.Body)
	if err != nil {
		return err
	}

	resp := fiber.Map{"classification": toClassificationResponse(result.Classification)}
	if result.StageChange != nil {
		resp["stage_change"] = toStageRecordResponse(result.StageChange)
	}
	return response.OK(c, resp)
}

// ListByLead returns all classifications recorded for a lead, newest first.
func (h *ReplyHandler) ListByLead(c *fiber.Ctx) error {
	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	records, err := h.service.ListByLead(c.Context(), leadID)
	if err != nil {
		return err
	}
	return response.OK(c, toClassificationResponses(records))
}

type overrideRequest struct {
	Classification string `json:"classification"`
}

// Override corrects a stored classification once. The correction is audit
// data only: stage transitions already taken are not undone.
func (h *ReplyHandler) Override(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	var req overrideRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	newClass := domain.ReplyClass(req.Classification)
	if !newClass.Valid() {
		return apperr.InvalidInput("classification", "unknown reply classification")
	}

	rc, err := h.service.Override(c.Context(), id, newClass, triggeredBy(c))
	if err != nil {
		return err
	}
	return response.OK(c, toClassificationResponse(rc))
}
