package tree

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sequoia/pkg/models"
	"github.com/Ramsey-B/sequoia/pkg/tree"
)

// Handler serves tree endpoints
type Handler struct {
	trees  *tree.Service
	logger ectologger.Logger
}

// NewHandler creates a tree handler
func NewHandler(trees *tree.Service, logger ectologger.Logger) *Handler {
	return &Handler{
		trees:  trees,
		logger: logger,
	}
}

// Register registers tree routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/:root_id", h.GetTree)
	g.GET("/:root_id/ancestors/count", h.AncestorCount)
}

// GetTree builds the tree rooted at root_id. An unknown root returns a null
// body, not an error.
func (h *Handler) GetTree(c echo.Context) error {
	ctx := c.Request().Context()

	direction := models.TreeDirection(c.QueryParam("direction"))
	if direction == "" {
		direction = models.TreeDirectionDescendants
	}
	maxDepth, _ := strconv.Atoi(c.QueryParam("max_depth"))

	node, err := h.trees.BuildTree(ctx, c.Param("root_id"), direction, maxDepth)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, node)
}

// AncestorCount returns the number of distinct ancestors above root_id
func (h *Handler) AncestorCount(c echo.Context) error {
	ctx := c.Request().Context()

	maxDepth, _ := strconv.Atoi(c.QueryParam("max_depth"))

	count, err := h.trees.AncestorCount(ctx, c.Param("root_id"), maxDepth)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"person_id":      c.Param("root_id"),
		"ancestor_count": count,
	})
}
