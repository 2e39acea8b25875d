package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"eventbritesync/internal/delivery/http/helpers"
	"eventbritesync/internal/domain"
)

// eventIDRegex matches an Eventbrite object id.
var eventIDRegex = regexp.MustCompile(`^[0-9]{1,32}$`)

type SyncController struct {
	Logger  *slog.Logger
	Service domain.SyncService
}

func NewSyncController(logger *slog.Logger, svc domain.SyncService) *SyncController {
	return &SyncController{
		Logger:  logger,
		Service: svc,
	}
}

// ImportReportSuccessResponse is the success response envelope for the paged sync endpoints.
type ImportReportSuccessResponse struct {
	Data  domain.ImportReportSummary `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// EventSuccessResponse is the success response envelope for POST /sync/events/{eventID}.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventSummarySuccessResponse is the success response envelope for GET /events/{eventID}/summary.
type EventSummarySuccessResponse struct {
	Data  *domain.EventSummary `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListEventsData is the data payload for GET /events.
type ListEventsData struct {
	Items      []*domain.Event        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events.
type ListEventsSuccessResponse struct {
	Data  ListEventsData    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SyncOwnedEvents godoc
// @Summary Sync all events owned by the token's user
// @Description Pages through the owned events on Eventbrite and mirrors each one with its ticket classes. Items that fail are listed in the report; the rest are kept.
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Param status query string false "Eventbrite status filter (draft, live, canceled, started, ended, completed)"
// @Success 200 {object} controllers.ImportReportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /sync/events [post]
func (c *SyncController) SyncOwnedEvents(w http.ResponseWriter, r *http.Request) {
	opts, ok := listOptions(w, r)
	if !ok {
		return
	}
	report, err := c.Service.SyncOwnedEvents(r.Context(), opts)
	if err != nil && report == nil {
		c.writeError(w, r, err)
		return
	}
	if err != nil {
		// pages fetched before the failure are kept; report them.
		c.Logger.WarnContext(r.Context(), "sync stopped early", "path", r.URL.Path, "err", err)
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report.Summary())
}

// SyncEvent godoc
// @Summary Sync one event
// @Description Fetches one event with its ticket classes from Eventbrite and mirrors it.
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Eventbrite event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /sync/events/{eventID} [post]
func (c *SyncController) SyncEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.SyncEvent(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// SyncEventAttendees godoc
// @Summary Sync the attendees of one event
// @Description Pages through the attendees of an event on Eventbrite and mirrors each one with its order. The event is synced first when it is not mirrored yet.
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Eventbrite event ID"
// @Param status query string false "Attendee status filter passed to Eventbrite"
// @Success 200 {object} controllers.ImportReportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /sync/events/{eventID}/attendees [post]
func (c *SyncController) SyncEventAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	opts := domain.ListOptions{Status: r.URL.Query().Get("status")}
	report, err := c.Service.SyncEventAttendees(r.Context(), eventID, opts)
	if err != nil && report == nil {
		c.writeError(w, r, err)
		return
	}
	if err != nil {
		c.Logger.WarnContext(r.Context(), "sync stopped early", "path", r.URL.Path, "err", err)
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report.Summary())
}

// ListEvents godoc
// @Summary List mirrored events
// @Description Returns mirrored events, latest end first. Query: page (default 1), page_size (default 20, max 100).
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *SyncController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params, err := helpers.ParsePagination(r.URL.Query())
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	events, total, err := c.Service.ListEvents(r.Context(), params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsData{
		Items:      events,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// EventSummary godoc
// @Summary Sales summary of a mirrored event
// @Description Returns ticket quantities and ticket sales totals of a mirrored event.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Eventbrite event ID"
// @Success 200 {object} controllers.EventSummarySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/summary [get]
func (c *SyncController) EventSummary(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	summary, err := c.Service.EventSummary(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}

func (c *SyncController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		c.Logger.ErrorContext(r.Context(), "eventbrite request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeBadGateway, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

func pathEventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", false
	}
	if !eventIDRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return "", false
	}
	return eventID, true
}

func listOptions(w http.ResponseWriter, r *http.Request) (domain.ListOptions, bool) {
	var opts domain.ListOptions
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := domain.ParseEventStatus(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return opts, false
		}
		opts.Status = string(st)
	}
	return opts, true
}
