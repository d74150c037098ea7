package http

import (
	"time"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/core/service/pipeline"
	"leadflow/pkg/apperr"
	"leadflow/pkg/logger"
	"leadflow/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// LeadHandler handles HTTP requests for lead intake and pipeline runs.
type LeadHandler struct {
	leads        out.LeadRepository
	runs         out.PipelineRunRepository
	activities   out.ActivityWriter
	orchestrator *pipeline.Orchestrator
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leads out.LeadRepository, runs out.PipelineRunRepository, activities out.ActivityWriter, orchestrator *pipeline.Orchestrator) *LeadHandler {
	return &LeadHandler{
		leads:        leads,
		runs:         runs,
		activities:   activities,
		orchestrator: orchestrator,
	}
}

// Register registers lead routes
func (h *LeadHandler) Register(router fiber.Router) {
	leads := router.Group("/leads")

	leads.Get("/", h.List)
	leads.Post("/", h.Create)
	leads.Post("/bulk-run", h.BulkRun)
	leads.Get("/:id", h.Get)
	leads.Delete("/:id", h.Archive)

	leads.Post("/:id/run", h.Run)
	leads.Get("/:id/runs", h.ListRuns)
	leads.Get("/:id/activities", h.ListActivities)
}

type createLeadRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	JobTitle    string `json:"job_title"`
	Industry    string `json:"industry"`
	CompanySize string `json:"company_size"`
	Country     string `json:"country"`
	Source      string `json:"source"`
	BudgetRange string `json:"budget_range"`
	PainPoint   string `json:"pain_point"`
	Urgency     string `json:"urgency"`
	LeadMessage string `json:"lead_message"`
}

// Create ingests a new lead. Intake only stores the record; scoring happens
// when a pipeline run is requested.
func (h *LeadHandler) Create(c *fiber.Ctx) error {
	var req createLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Email == "" {
		return apperr.MissingField("email")
	}

	lead := &domain.Lead{
		ID:          uuid.New(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		JobTitle:    req.JobTitle,
		Industry:    req.Industry,
		CompanySize: req.CompanySize,
		Country:     req.Country,
		Source:      req.Source,
		BudgetRange: req.BudgetRange,
		PainPoint:   req.PainPoint,
		Urgency:     req.Urgency,
		LeadMessage: req.LeadMessage,
	}
	if err := h.leads.Create(c.Context(), lead); err != nil {
		return err
	}

	// Intake succeeded; a missing audit entry is not worth a 500.
	if err := h.activities.Append(c.Context(), lead.ID, domain.ActivityIngested, map[string]any{
		"source": lead.Source,
	}); err != nil {
		logger.WithError(err).Warn("Failed to append intake activity")
	}

	stored, err := h.leads.GetByID(c.Context(), lead.ID)
	if err != nil {
		return err
	}
	return response.Created(c, toLeadResponse(stored))
}

// List returns leads, newest first. Archived leads are excluded.
func (h *LeadHandler) List(c *fiber.Ctx) error {
	p := response.GetPagination(c, 50, 200)

	leads, err := h.leads.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, toLeadResponses(leads), &response.Meta{
		Page:     p.Page,
		PageSize: p.PageSize,
		HasMore:  len(leads) == p.Limit,
	})
}

// Get returns one lead by id.
func (h *LeadHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	lead, err := h.leads.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, toLeadResponse(lead))
}

// Archive soft-deletes a lead. History (runs, drafts, activities) is kept.
func (h *LeadHandler) Archive(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	if err := h.leads.Archive(c.Context(), id); err != nil {
		return err
	}
	return response.NoContent(c)
}

// Run executes the decision pipeline for one lead. A run already in flight
// yields 409; a run that failed mid-way still returns the run record.
func (h *LeadHandler) Run(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	run, err := h.orchestrator.Run(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, toRunResponse(run))
}

type bulkRunRequest struct {
	LeadIDs []string `json:"lead_ids"`
}

const maxBulkRunSize = 1000

// BulkRun executes the pipeline for many leads. Per-lead failures are
// reported inline; the call succeeds as long as the batch was processed.
func (h *LeadHandler) BulkRun(c *fiber.Ctx) error {
	var req bulkRunRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if len(req.LeadIDs) == 0 {
		return apperr.MissingField("lead_ids")
	}
	if len(req.LeadIDs) > maxBulkRunSize {
		return apperr.ValidationFailed("too many lead ids in one request")
	}

	ids := make([]uuid.UUID, len(req.LeadIDs))
	for i, raw := range req.LeadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.InvalidInput("lead_ids", "must be UUIDs")
		}
		ids[i] = id
	}

	started := time.Now()
	results := h.orchestrator.BulkRun(c.Context(), ids)

	succeeded := 0
	for _, r := range results {
		if r.Run != nil && r.Run.Status == domain.RunSucceeded {
			succeeded++
		}
	}

	return response.OK(c, fiber.Map{
		"total":       len(results),
		"succeeded":   succeeded,
		"failed":      len(results) - succeeded,
		"duration_ms": time.Since(started).Milliseconds(),
		"results":     toBulkResultResponses(results),
	})
}

// ListRuns returns a lead's pipeline run history, newest first.
func (h *LeadHandler) ListRuns(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	runs, err := h.runs.ListByLead(c.Context(), id)
	if err != nil {
		return err
	}

	out := make([]*runResponse, len(runs))
	for i, r := range runs {
		out[i] = toRunResponse(r)
	}
	return response.OK(c, out)
}

// ListActivities returns a lead's audit trail, newest first.
func (h *LeadHandler) ListActivities(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidInput("id", "must be a UUID")
	}

	limit := c.QueryInt("limit", 100)
	entries, err := h.activities.ListByLead(c.Context(), id, limit)
	if err != nil {
		return err
	}
	return response.OK(c, toActivityResponses(entries))
}
