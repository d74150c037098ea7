package http

import (
	"time"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/pkg/apperr"
	"leadflow/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SettingsHandler handles HTTP requests for the scoring configuration.
type SettingsHandler struct {
	configs out.ScoringConfigRepository
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(configs out.ScoringConfigRepository) *SettingsHandler {
	return &SettingsHandler{configs: configs}
}

// Register registers settings routes
func (h *SettingsHandler) Register(router fiber.Router) {
	settings := router.Group("/settings")
	settings.Get("/scoring", h.GetScoring)
	settings.Put("/scoring", h.PutScoring)
}

type scoringConfigResponse struct {
	TenantID   string             `json:"tenant_id"`
	Weights    map[string]float64 `json:"weights"`
	Thresholds domain.Thresholds  `json:"thresholds"`
	UpdatedBy  string             `json:"updated_by"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func toScoringConfigResponse(cfg *domain.ScoringConfig) *scoringConfigResponse {
	return &scoringConfigResponse{
		TenantID:   cfg.TenantID,
		Weights:    cfg.Weights,
		Thresholds: cfg.Threshold,
		UpdatedBy:  cfg.UpdatedBy,
		UpdatedAt:  cfg.UpdatedAt,
	}
}

// GetScoring returns the tenant's scoring config, or the factory defaults
// when nothing has been stored yet.
func (h *SettingsHandler) GetScoring(c *fiber.Ctx) error {
	tenantID := c.Query("tenant_id", "default")

	cfg, err := h.configs.Get(c.Context(), tenantID)
	if err != nil {
		return err
	}
	return response.OK(c, toScoringConfigResponse(cfg))
}

type putScoringRequest struct {
	Weights    map[string]float64 `json:"weights"`
	Thresholds *domain.Thresholds `json:"thresholds"`
}

// PutScoring replaces the tenant's scoring config. Unknown factors are
// rejected, weights are clamped to bounds, and the hot threshold must stay
// strictly above warm. Last write wins.
func (h *SettingsHandler) PutScoring(c *fiber.Ctx) error {
	tenantID := c.Query("tenant_id", "default")

	var req putScoringRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	cfg, err := h.configs.Get(c.Context(), tenantID)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(domain.FactorOrder))
	for _, f := range domain.FactorOrder {
		known[f] = true
	}
	for factor, w := range req.Weights {
		if !known[factor] {
			return apperr.InvalidInput("weights", "unknown factor: "+factor)
		}
		cfg.Weights[factor] = domain.ClampWeight(w)
	}

	if req.Thresholds != nil {
		if req.Thresholds.Hot <= req.Thresholds.Warm {
			return apperr.ValidationFailed("hot threshold must be greater than warm threshold")
		}
		if req.Thresholds.Warm < 0 || req.Thresholds.Hot > 100 {
			return apperr.ValidationFailed("thresholds must lie within the 0-100 score range")
		}
		cfg.Threshold = *req.Thresholds
	}

	cfg.UpdatedBy = triggeredBy(c)
	cfg.UpdatedAt = time.Now().UTC()

	if err := h.configs.Put(c.Context(), cfg); err != nil {
		return err
	}
	return response.OK(c, toScoringConfigResponse(cfg))
}
