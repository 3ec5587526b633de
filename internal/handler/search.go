package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/skyfinder/internal/models"
	"github.com/dharmasatrya/skyfinder/internal/session"
	"github.com/dharmasatrya/skyfinder/internal/suggest"
)

type SearchHandler struct {
	store *Store
}

func NewSearchHandler(store *Store) *SearchHandler {
	return &SearchHandler{store: store}
}

// Register mounts the session API on g.
func (h *SearchHandler) Register(g *echo.Group) {
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions/:id", h.GetSession)
	g.DELETE("/sessions/:id", h.DeleteSession)
	g.POST("/sessions/:id/suggestions", h.Suggest)
	g.GET("/sessions/:id/suggestions", h.GetSuggestions)
	g.POST("/sessions/:id/select", h.Select)
	g.POST("/sessions/:id/search", h.Search)
	g.PUT("/sessions/:id/filters", h.ApplyFilters)
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type suggestRequest struct {
	Field string `json:"field"`
	Query string `json:"query"`
}

type selectRequest struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

type selectResponse struct {
	Airport  models.Airport        `json:"airport"`
	Criteria models.SearchCriteria `json:"criteria"`
}

type searchRequest struct {
	DepartureDate string          `json:"departure_date"`
	ReturnDate    *string         `json:"return_date,omitempty"`
	Passengers    int             `json:"passengers"`
	CabinClass    string          `json:"cabin_class"`
	TripType      models.TripType `json:"trip_type"`
}

func (h *SearchHandler) CreateSession(c echo.Context) error {
	ws := h.store.Create()
	return c.JSON(http.StatusCreated, createSessionResponse{ID: ws.ID})
}

func (h *SearchHandler) GetSession(c echo.Context) error {
	ws, ok := h.workspace(c)
	if !ok {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, view(ws))
}

func (h *SearchHandler) DeleteSession(c echo.Context) error {
	if err := h.store.Delete(c.Param("id")); err != nil {
		return notFound(c)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SearchHandler) Suggest(c echo.Context) error {
	ws, ok := h.workspace(c)
	if !ok {
		return notFound(c)
	}

	var req suggestRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, err)
	}
	field, err := models.ParseField(req.Field)
	if err != nil {
		return validationError(c, err)
	}

	ws.Suggest.Suggest(field, req.Query)
	return c.JSON(http.StatusAccepted, ws.Suggest.State(field))
}

func (h *SearchHandler) GetSuggestions(c echo.Context) error {
	ws, ok := h.workspace(c)
	if !ok {
		return notFound(c)
	}
	field, err := models.ParseField(c.QueryParam("field"))
	if err != nil {
		return validationError(c, err)
	}
	return c.JSON(http.StatusOK, ws.Suggest.State(field))
}

func (h *SearchHandler) Select(c echo.Context) error {
	ws, ok := h.workspace(c)
	if !ok {
		return notFound(c)
	}

	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, err)
	}
	field, err := models.ParseField(req.Field)
	if err != nil {
		return validationError(c, err)
	}

	airport, err := ws.Suggest.Select(field, req.Code)
	if errors.Is(err, suggest.ErrUnknownSuggestion) {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "unknown_suggestion",
			Message: err.Error(),
			Code:    http.StatusNotFound,
		})
	}
	if err != nil {
		return validationError(c, err)
	}

	return c.JSON(http.StatusOK, selectResponse{
		Airport:  airport,
		Criteria: ws.Search.Criteria(),
	})
}

func (h *SearchHandler) Search(c echo.Context) error {
	ws, ok := h.workspace(c)
	if !ok {
		return notFound(c)
	}

	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, err)
	}

	criteria := ws.Search.Criteria()
	criteria.DepartureDate = req.DepartureDate
	criteria.Passengers = req.Passengers
	criteria.CabinClass = req.CabinClass
	criteria.TripType = req.TripType
	criteria.ReturnDate = nil
	// A return date left over in the form only counts for round trips.
	if req.TripType == models.RoundTrip {
		criteria.ReturnDate = req.ReturnDate
	}

	err := ws.Search.Submit(c.Request().Context(), criteria)

	var ve models.ValidationError
	var ue *models.UpstreamError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, view(ws))
	case errors.As(err, &ve):
		return validationError(c, err)
	case errors.Is(err, session.ErrSearchInProgress):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "search_in_progress",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
	case errors.As(err, &ue):
		return c.JSON(http.StatusBadGateway, view(ws))
	default:
		return c.JSON(http.StatusInternalServerError, view(ws))
	}
}

func (h *SearchHandler) ApplyFilters(c echo.Context) error {
	ws, ok := h.workspace(c)
	if !ok {
		return notFound(c)
	}

	filters := models.DefaultFilters()
	if err := c.Bind(&filters); err != nil {
		return invalidRequest(c, err)
	}
	if filters.Airlines == nil {
		filters.Airlines = []string{}
	}
	if err := ws.Search.ApplyFilters(filters); err != nil {
		return validationError(c, err)
	}
	return c.JSON(http.StatusOK, view(ws))
}

func (h *SearchHandler) workspace(c echo.Context) (*Workspace, bool) {
	ws, err := h.store.Get(c.Param("id"))
	return ws, err == nil
}

func view(ws *Workspace) models.SessionView {
	state := ws.Search.State()
	total := len(state.Flights)
	state.Flights = nil

	return models.SessionView{
		ID:           ws.ID,
		Criteria:     ws.Search.Criteria(),
		Filters:      ws.Search.Filters(),
		State:        state,
		Results:      ws.Search.Results(),
		TotalResults: total,
		Facets:       ws.Search.Facets(),
	}
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "session_not_found",
		Message: ErrSessionNotFound.Error(),
		Code:    http.StatusNotFound,
	})
}

func invalidRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: "Failed to parse request body: " + err.Error(),
		Code:    http.StatusBadRequest,
	})
}

func validationError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
