package http

import (
	"time"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/core/service/outcome"
	"leadflow/pkg/apperr"
	"leadflow/pkg/logger"
	"leadflow/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// DraftHandler handles HTTP requests for email drafts. Approving or sending a
// draft is what moves its lead into the outcome stage machine.
type DraftHandler struct {
	drafts     out.EmailDraftRepository
	activities out.ActivityWriter
	machine    *outcome.Machine
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(drafts out.EmailDraftRepository, activities out.ActivityWriter, machine *outcome.Machine) *DraftHandler {
	return &DraftHandler{
		drafts:     drafts,
		activities: activities,
		machine:    machine,
	}
}

// Register registers draft routes
func (h *DraftHandler) Register(router fiber.Router) {
	router.Get("/leads/:id/drafts", h.ListByLead)

	drafts := router.Group("/drafts")
	drafts.Get("/:id", h.Get)
	drafts.Post("/:id/approve", h.Approve)
	drafts.Post("/:id/send", h.Send)
}

// Get returns one draft by id.
func (h *DraftHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	draft, err := h.drafts.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, toDraftResponse(draft))
}

// ListByLead returns all drafts for a lead, newest first.
func (h *DraftHandler) ListByLead(c *fiber.Ctx) error {
	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	drafts, err := h.drafts.ListByLead(c.Context(), leadID)
	if err != nil {
		return err
	}
	return response.OK(c, toDraftResponses(drafts))
}

// Approve marks a draft ready to send and enters the lead into EMAIL_SENT.
func (h *DraftHandler) Approve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	draft, err := h.drafts.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if err := h.drafts.MarkApproved(c.Context(), id); err != nil {
		return err
	}

	if err := h.activities.Append(c.Context(), draft.LeadID, domain.ActivityEmailApproved, map[string]any{
		"draft_id": id.String(),
	}); err != nil {
		logger.WithError(err).Warn("Failed to append approval activity")
	}

	if _, err := h.machine.EnterEmailSent(c.Context(), draft.LeadID, triggeredBy(c)); err != nil {
		return err
	}

	updated, err := h.drafts.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, toDraftResponse(updated))
}

// Send records delivery of an approved draft. Sending an unapproved draft is
// rejected; the lead stays in (or idempotently enters) EMAIL_SENT.
func (h *DraftHandler) Send(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	draft, err := h.drafts.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if !draft.Approved {
		return apperr.Conflict("draft must be approved before sending")
	}

	sentAt := time.Now().UTC()
	if err := h.drafts.MarkSent(c.Context(), id, sentAt); err != nil {
		return err
	}

	if err := h.activities.Append(c.Context(), draft.LeadID, domain.ActivityEmailSent, map[string]any{
		"draft_id": id.String(),
		"variant":  string(draft.Variant),
	}); err != nil {
		logger.WithError(err).Warn("Failed to append sent activity")
	}

	if _, err := h.machine.EnterEmailSent(c.Context(), draft.LeadID, triggeredBy(c)); err != nil {
		return err
	}

	updated, err := h.drafts.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, toDraftResponse(updated))
}

// triggeredBy identifies the caller for audit fields, falling back to the
// request id when the route is unauthenticated.
func triggeredBy(c *fiber.Ctx) string {
	if email, ok := c.Locals("user_email").(string); ok && email != "" {
		return email
	}
	if userID, ok := c.Locals("user_id").(uuid.UUID); ok {
		return userID.String()
	}
	if requestID, ok := c.Locals("request_id").(string); ok {
		return "request:" + requestID
	}
	return "api"
}
