package change

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sequoia/pkg/approval"
	"github.com/Ramsey-B/sequoia/pkg/models"
	"github.com/Ramsey-B/sequoia/pkg/policy"
	"github.com/Ramsey-B/sequoia/pkg/utils"
)

// Handler serves change workflow endpoints
type Handler struct {
	coordinator *approval.Coordinator
	logger      ectologger.Logger
}

// NewHandler creates a change handler
func NewHandler(coordinator *approval.Coordinator, logger ectologger.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// Register registers change routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.SubmitChange)
	g.GET("", h.ListChanges)
	g.GET("/assigned", h.ListAssigned)
	g.GET("/:id", h.GetChange)
	g.POST("/:id/vote", h.Vote)
	g.POST("/:id/cancel", h.Cancel)
}

// SubmitChange proposes a structural change
func (h *Handler) SubmitChange(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := policy.ActorFromContext(ctx)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.SubmitChangeRequest](c)
	if err != nil {
		return err
	}

	result, err := h.coordinator.Submit(ctx, actor, req)
	if err != nil {
		return err
	}

	if result.Applied {
		return c.JSON(http.StatusCreated, result)
	}
	return c.JSON(http.StatusAccepted, result)
}

// changeDetail pairs a change with its approval slots
type changeDetail struct {
	Change    *models.PendingChange `json:"change"`
	Approvals []models.Approval     `json:"approvals"`
}

// GetChange retrieves a change with its approvals
func (h *Handler) GetChange(c echo.Context) error {
	ctx := c.Request().Context()

	pending, approvals, err := h.coordinator.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, changeDetail{Change: pending, Approvals: approvals})
}

// ListChanges lists changes by status, defaulting to pending
func (h *Handler) ListChanges(c echo.Context) error {
	ctx := c.Request().Context()

	status := models.ChangeStatus(c.QueryParam("status"))
	if status == "" {
		status = models.ChangeStatusPending
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	changes, total, err := h.coordinator.ListByStatus(ctx, status, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.ChangeListResponse{Items: changes, TotalCount: total})
}

// ListAssigned lists pending changes awaiting the caller's vote
func (h *Handler) ListAssigned(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := policy.ActorFromContext(ctx)
	if err != nil {
		return err
	}

	changes, err := h.coordinator.ListForApprover(ctx, actor.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, changes)
}

// Vote records the caller's decision on a pending change
func (h *Handler) Vote(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := policy.ActorFromContext(ctx)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.VoteRequest](c)
	if err != nil {
		return err
	}

	resolved, err := h.coordinator.Vote(ctx, actor, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resolved)
}

// Cancel withdraws a pending change
func (h *Handler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := policy.ActorFromContext(ctx)
	if err != nil {
		return err
	}

	cancelled, err := h.coordinator.Cancel(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cancelled)
}
