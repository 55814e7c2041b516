package web

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/internal/display"
	"github.com/contamio/recallctl/internal/session"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/labstack/echo/v4"
)

type option struct {
	Value   string
	Label   string
	Checked bool
}

type filterGroup struct {
	Column  string
	Label   string
	Options []option
}

type page struct {
	Title      string
	State      string
	Headers    []string
	Rows       [][]string
	Total      int
	IDs        []string
	Filters    []filterGroup
	Form       *session.EditForm
	Statuses   []option
	Error      string
	Notice     string
	Stats      recall.CacheStats
	HitRate    string
	FilteredBy string
}

// expiredNotice replaces an action posted with an unknown session cookie.
const expiredNotice = "Your session expired, so the last action was not applied."

// session returns the caller's session, starting one and setting the cookie
// when the browser has none or its session was evicted.
func (s *Server) session(c echo.Context) (*Session, error) {
	if current, ok := s.existing(c); ok {
		return current, nil
	}

	created, err := s.sessions.Create(c.Request().Context())
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, err.Error()).SetInternal(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    created.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return created, nil
}

// existing returns the session named by the caller's cookie, if it is live.
func (s *Server) existing(c echo.Context) (*Session, bool) {
	cookie, err := c.Cookie(constants.SessionCookieName)
	if err != nil {
		return nil, false
	}

	return s.sessions.Get(cookie.Value)
}

func (s *Server) handleIndex(c echo.Context) error {
	current, err := s.session(c)
	if err != nil {
		return err
	}

	shell := current.Shell
	if shell.State() == session.StateLoading {
		err = shell.Load(c.Request().Context())
		if err != nil && !errors.Is(err, recall.ErrInvalidTransition) {
			s.logger.WarnContext(c.Request().Context(), "loading recalls failed",
				"session", current.ID,
				"error", err.Error())
		}
	}

	view := shell.View()

	status := http.StatusOK
	if view.State == session.StateError {
		status = http.StatusBadGateway
	}

	data := s.page(current, view)
	if c.QueryParam("session") == "expired" && data.Notice == "" {
		data.Notice = expiredNotice
	}

	return c.Render(status, "index.html", data)
}

func (s *Server) handleFilter(c echo.Context) error {
	current, ok := s.existing(c)
	if !ok {
		return redirectExpired(c)
	}

	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}

	for _, column := range recall.FilterableFields {
		err = current.Shell.SetFilter(column, nonEmpty(form[column]))
		if err != nil {
			return respond(c, err)
		}
	}

	return redirectHome(c)
}

func (s *Server) handleSelect(c echo.Context) error {
	current, ok := s.existing(c)
	if !ok {
		return redirectExpired(c)
	}

	id := strings.TrimSpace(c.FormValue("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, recall.ErrIDRequired.Error())
	}

	err := current.Shell.Select(c.Request().Context(), id)
	return respond(c, err)
}

func (s *Server) handleUpdate(c echo.Context) error {
	current, ok := s.existing(c)
	if !ok {
		return redirectExpired(c)
	}

	status, err := recall.ParseStatus(c.FormValue("status"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	payload := recall.NewUpdatePayload(status, c.FormValue("corrective_action"))

	err = current.Shell.Submit(c.Request().Context(), payload)
	return respond(c, err)
}

func (s *Server) handleCancel(c echo.Context) error {
	current, ok := s.existing(c)
	if !ok {
		return redirectExpired(c)
	}

	err := current.Shell.Cancel()
	return respond(c, err)
}

func (s *Server) handleRefresh(c echo.Context) error {
	current, ok := s.existing(c)
	if !ok {
		return redirectExpired(c)
	}

	err := current.Shell.Refresh(c.Request().Context())
	return respond(c, err)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleMetrics(c echo.Context) error {
	current, ok := s.existing(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no session")
	}

	stats := current.Client.Stats()

	response := map[string]interface{}{
		"session": current.ID,
		"state":   current.Shell.State().String(),
		"cache":    stats,
		"hit_rate": stats.GetHitRate(),
	}

	if metrics := current.Client.Metrics(); metrics != nil {
		response["requests"] = metrics.Snapshot()
		response["total_requests"] = metrics.TotalRequests()
	}

	return c.JSON(http.StatusOK, response)
}

func (s *Server) page(current *Session, view session.View) page {
	data := page{
		Title:   s.title,
		State:   view.State.String(),
		Headers: display.Headers,
		Rows:    display.Rows(view.Rows),
		Total:   view.Total,
		IDs:     view.IDs,
		Form:    view.Form,
		Notice:  view.Notice,
		Stats:   current.Client.Stats(),
	}

	data.HitRate = fmt.Sprintf("%.0f%%", data.Stats.GetHitRate()*100)

	data.FilteredBy = display.FilterSummary(view.Selection)

	if view.Err != nil {
		data.Error = view.Err.Error()
	}

	for _, column := range recall.FilterableFields {
		group := filterGroup{Column: column, Label: display.ColumnLabel(column)}

		for _, value := range view.Options[column] {
			group.Options = append(group.Options, option{
				Value:   value,
				Label:   value,
				Checked: slices.Contains(view.Selection[column], value),
			})
		}

		data.Filters = append(data.Filters, group)
	}

	if view.Form != nil {
		for _, status := range recall.Statuses() {
			data.Statuses = append(data.Statuses, option{
				Value:   string(status),
				Label:   display.StatusLabel(status),
				Checked: status == view.Form.Status,
			})
		}
	}

	return data
}

// respond redirects back to the page after a shell action. Failures the shell
// surfaces itself are shown there; a request the current state does not
// accept is a conflict.
func respond(c echo.Context, err error) error {
	switch {
	case err == nil:
		return redirectHome(c)
	case errors.Is(err, recall.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error()).SetInternal(err)
	case errors.Is(err, recall.ErrUnknownFilterField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	default:
		return redirectHome(c)
	}
}

func redirectHome(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/")
}

func redirectExpired(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/?session=expired")
}

func nonEmpty(values []string) []string {
	return slices.DeleteFunc(slices.Clone(values), func(value string) bool {
		return strings.TrimSpace(value) == ""
	})
}

