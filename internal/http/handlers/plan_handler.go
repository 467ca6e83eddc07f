// README: Trip plan endpoints (CRUD, generation and refinement).
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"voyage/internal/modules/itinerary"
	"voyage/internal/modules/planner"
	"voyage/internal/types"
)

type PlanHandler struct {
	plans   *itinerary.Service
	planner *planner.Service
	logger  *slog.Logger
}

func NewPlanHandler(plans *itinerary.Service, planner *planner.Service, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, planner: planner, logger: logger}
}

type generateResponse struct {
	Plan        *planResponse `json:"plan,omitempty"`
	Reply       string        `json:"reply"`
	Truncated   bool          `json:"truncated"`
	RateLimited bool          `json:"rateLimited"`
}

// Generate handles POST /api/trip-plans/generate. A stored plan answers 201;
// a reply that is not an itinerary answers 200 without a plan.
func (h *PlanHandler) Generate(c *gin.Context) {
	var req tripSpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	spec, err := req.toSpec()
	if err != nil {
		writePlanError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, completionTimeout)
	defer cancel()
	res, err := h.planner.Generate(ctx, callerID(c), spec)
	if err != nil {
		h.logger.Error("generate failed", "uid", callerID(c), "error", err)
		writePlanError(c, err)
		return
	}

	status := http.StatusOK
	if res.Plan != nil {
		status = http.StatusCreated
	}
	writeJSON(c, status, generateResponse{
		Plan:        toPlanResponse(res.Plan),
		Reply:       res.Reply,
		Truncated:   res.Truncated,
		RateLimited: res.RateLimited,
	})
}

type refineResponse struct {
	Reply         string        `json:"reply"`
	Plan          *planResponse `json:"plan"`
	PlanUpdated   bool          `json:"planUpdated"`
	AppliedFields []string      `json:"appliedFields"`
	Truncated     bool          `json:"truncated"`
	RateLimited   bool          `json:"rateLimited"`
}

// Refine handles POST /api/trip-plans/:id/refine.
func (h *PlanHandler) Refine(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := withTimeout(c, completionTimeout)
	defer cancel()
	res, err := h.planner.Refine(ctx, callerID(c), types.ID(c.Param("id")), req.Message)
	if err != nil {
		h.logger.Error("refine failed", "uid", callerID(c), "plan_id", c.Param("id"), "error", err)
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, refineResponse{
		Reply:         res.Reply,
		Plan:          toPlanResponse(res.Plan),
		PlanUpdated:   res.Replaced,
		AppliedFields: lo.Ternary(res.Applied == nil, []string{}, res.Applied),
		Truncated:     res.Truncated,
		RateLimited:   res.RateLimited,
	})
}

// Create handles POST /api/trip-plans, storing an itinerary the client already has.
func (h *PlanHandler) Create(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	spec, err := req.toSpec()
	if err != nil {
		writePlanError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, crudTimeout)
	defer cancel()
	p, err := h.plans.Create(ctx, itinerary.CreateCommand{OwnerID: callerID(c), Spec: spec, GeneratedPlan: req.GeneratedPlan})
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toPlanResponse(p))
}

func (h *PlanHandler) List(c *gin.Context) {
	ctx, cancel := withTimeout(c, crudTimeout)
	defer cancel()
	plans, err := h.plans.List(ctx, callerID(c))
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"plans": lo.Map(plans, func(p *itinerary.Plan, _ int) *planResponse {
		return toPlanResponse(p)
	})})
}

func (h *PlanHandler) Get(c *gin.Context) {
	ctx, cancel := withTimeout(c, crudTimeout)
	defer cancel()
	p, err := h.plans.Get(ctx, callerID(c), types.ID(c.Param("id")))
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toPlanResponse(p))
}

// Update handles PUT /api/trip-plans/:id. When the body carries a version it
// must match the stored one.
func (h *PlanHandler) Update(c *gin.Context) {
	var req updatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writePlanError(c, err)
		return
	}

	ctx, cancel := withTimeout(c, crudTimeout)
	defer cancel()
	p, err := h.plans.Update(ctx, itinerary.UpdateCommand{
		OwnerID: callerID(c),
		ID:      types.ID(c.Param("id")),
		Patch:   patch,
		Version: req.Version,
	})
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toPlanResponse(p))
}

func (h *PlanHandler) Delete(c *gin.Context) {
	ctx, cancel := withTimeout(c, crudTimeout)
	defer cancel()
	if err := h.plans.Delete(ctx, callerID(c), types.ID(c.Param("id"))); err != nil {
		writePlanError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
