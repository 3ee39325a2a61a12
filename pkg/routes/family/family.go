package family

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sequoia/pkg/family"
	"github.com/Ramsey-B/sequoia/pkg/models"
	"github.com/Ramsey-B/sequoia/pkg/policy"
	"github.com/Ramsey-B/sequoia/pkg/utils"
)

// Handler serves family endpoints
type Handler struct {
	families   *family.Service
	aggregator *family.Aggregator
	policy     *policy.Evaluator
	logger     ectologger.Logger
}

// NewHandler creates a family handler
func NewHandler(families *family.Service, aggregator *family.Aggregator, evaluator *policy.Evaluator, logger ectologger.Logger) *Handler {
	return &Handler{
		families:   families,
		aggregator: aggregator,
		policy:     evaluator,
		logger:     logger,
	}
}

// Register registers family routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.RegisterFamily)
	g.GET("", h.ListFamilies)
	g.GET("/stats", h.GlobalStats)
	g.GET("/groups", h.FounderGroups)
	g.GET("/:root_id", h.GetFamily)
	g.GET("/:root_id/stats", h.TreeStats)
	g.PUT("/:root_id/name", h.RenameFamily)
}

// RegisterFamily registers or renames a family rooted at a person. Admin
// only; members propose renames through the change queue.
func (h *Handler) RegisterFamily(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := policy.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	if !h.policy.CanBypassApproval(actor) {
		return httperror.NewHTTPError(http.StatusForbidden, "family registration requires an admin role")
	}

	req, err := utils.BindRequest[models.UpsertFamilyRequest](c)
	if err != nil {
		return err
	}

	registered, err := h.families.Register(ctx, req, actor.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registered)
}

// RenameFamily renames an already-registered family. Admin only, same as
// registration; renaming an unregistered root is a not-found error.
func (h *Handler) RenameFamily(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := policy.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	if !h.policy.CanBypassApproval(actor) {
		return httperror.NewHTTPError(http.StatusForbidden, "family renaming requires an admin role")
	}

	req, err := utils.BindRequest[models.RenameFamilyRequest](c)
	if err != nil {
		return err
	}

	renamed, err := h.families.Rename(ctx, c.Param("root_id"), req.Name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, renamed)
}

// ListFamilies lists registered families
func (h *Handler) ListFamilies(c echo.Context) error {
	ctx := c.Request().Context()

	families, err := h.families.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, families)
}

// GetFamily retrieves the registered family rooted at a person
func (h *Handler) GetFamily(c echo.Context) error {
	ctx := c.Request().Context()

	registered, err := h.families.Get(ctx, c.Param("root_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, registered)
}

// GlobalStats returns store-wide aggregate counts
func (h *Handler) GlobalStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.aggregator.ComputeStats(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// TreeStats returns member and generation counts for one tree
func (h *Handler) TreeStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.aggregator.TreeStats(ctx, c.Param("root_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// FounderGroups returns surname-grouped founder families
func (h *Handler) FounderGroups(c echo.Context) error {
	ctx := c.Request().Context()

	groups, err := h.families.Groups(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, groups)
}
