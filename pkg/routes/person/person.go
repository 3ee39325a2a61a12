package person

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sequoia/internal/repositories"
	"github.com/Ramsey-B/sequoia/pkg/approval"
	"github.com/Ramsey-B/sequoia/pkg/family"
	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/models"
	"github.com/Ramsey-B/sequoia/pkg/policy"
	"github.com/Ramsey-B/sequoia/pkg/utils"
)

// Handler serves person endpoints
type Handler struct {
	persons     repositories.PersonRepository
	coordinator *approval.Coordinator
	relatives   *kinship.Service
	resolver    *family.Resolver
	logger      ectologger.Logger
}

// NewHandler creates a person handler
func NewHandler(
	persons repositories.PersonRepository,
	coordinator *approval.Coordinator,
	relatives *kinship.Service,
	resolver *family.Resolver,
	logger ectologger.Logger,
) *Handler {
	return &Handler{
		persons:     persons,
		coordinator: coordinator,
		relatives:   relatives,
		resolver:    resolver,
		logger:      logger,
	}
}

// Register registers person routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.CreatePerson)
	g.GET("", h.ListPersons)
	g.GET("/:id", h.GetPerson)
	g.GET("/:id/relatives", h.FindRelatives)
	g.GET("/:id/family-root", h.GetFamilyRoot)
}

// createPersonBody carries the person fields plus the approvers needed when
// the caller cannot bypass the approval queue.
type createPersonBody struct {
	models.CreatePersonRequest
	ApproverIDs []string `json:"approver_ids,omitempty"`
}

// CreatePerson creates a person directly for privileged actors, or submits a
// pending change for everyone else.
func (h *Handler) CreatePerson(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := policy.ActorFromContext(ctx)
	if err != nil {
		return err
	}

	body, err := utils.BindRequest[createPersonBody](c)
	if err != nil {
		return err
	}

	data, err := json.Marshal(body.CreatePersonRequest)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid person payload")
	}

	result, err := h.coordinator.Submit(ctx, actor, models.SubmitChangeRequest{
		ChangeType:  models.ChangeTypeCreatePerson,
		ChangeData:  data,
		ApproverIDs: body.ApproverIDs,
	})
	if err != nil {
		return err
	}

	if result.Applied {
		return c.JSON(http.StatusCreated, result)
	}
	return c.JSON(http.StatusAccepted, result)
}

// GetPerson retrieves a person by id
func (h *Handler) GetPerson(c echo.Context) error {
	ctx := c.Request().Context()

	person, err := h.persons.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, person)
}

// ListPersons lists persons with pagination
func (h *Handler) ListPersons(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	persons, total, err := h.persons.List(ctx, page, pageSize)
	if err != nil {
		return err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	return c.JSON(http.StatusOK, models.PersonListResponse{
		Items:      persons,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// FindRelatives returns ranked relative suggestions for a person
func (h *Handler) FindRelatives(c echo.Context) error {
	ctx := c.Request().Context()

	minDistance, _ := strconv.Atoi(c.QueryParam("min_distance"))
	maxDistance, _ := strconv.Atoi(c.QueryParam("max_distance"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	// contacted carries the user ids the caller has already reached out
	// to, comma separated; their persons are dropped from the suggestions.
	var contacted []string
	if raw := c.QueryParam("contacted"); raw != "" {
		for _, userID := range strings.Split(raw, ",") {
			if userID = strings.TrimSpace(userID); userID != "" {
				contacted = append(contacted, userID)
			}
		}
	}

	suggestions, err := h.relatives.FindRelatives(ctx, c.Param("id"), minDistance, maxDistance, limit, contacted)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, suggestions)
}

// GetFamilyRoot resolves the nearest registered family root above a person
func (h *Handler) GetFamilyRoot(c echo.Context) error {
	ctx := c.Request().Context()

	rootID, err := h.resolver.FindFamilyRoot(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	if rootID == "" {
		return c.JSON(http.StatusOK, map[string]any{"root_person_id": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"root_person_id": rootID})
}
