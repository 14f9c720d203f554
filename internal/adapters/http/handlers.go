package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/tz"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.fail(c, domain.Invalid("malformed body: %v", err))
		return false
	}
	return true
}

func (s *Server) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.fail(c, domain.Invalid("invalid id %q", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

// meetingFilter reads ?status=open,full&type=regular&from=2026-10-01&to=…&limit=&offset=.
// Dates are Seoul calendar days; to is inclusive.
func meetingFilter(c *gin.Context) (output.MeetingFilter, error) {
	var f output.MeetingFilter
	for _, v := range splitList(c.Query("status")) {
		st := domain.DisplayStatus(v)
		if !st.Valid() {
			return f, domain.Invalid("unknown status %q", v)
		}
		f.Statuses = append(f.Statuses, st)
	}
	for _, v := range splitList(c.Query("type")) {
		t := entities.MeetingType(v)
		if !t.Valid() {
			return f, domain.Invalid("unknown meeting type %q", v)
		}
		f.Types = append(f.Types, t)
	}
	var err error
	if f.From, err = parseDay(c.Query("from"), false); err != nil {
		return f, err
	}
	if f.To, err = parseDay(c.Query("to"), true); err != nil {
		return f, err
	}

	f.Limit = defaultPageSize
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, domain.Invalid("invalid limit %q", v)
		}
		f.Limit = min(n, maxPageSize)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, domain.Invalid("invalid offset %q", v)
		}
		f.Offset = n
	}
	return f, nil
}

func parseDay(v string, end bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, tz.Seoul)
	if err != nil {
		return time.Time{}, domain.Invalid("invalid date %q", v)
	}
	if end {
		d = d.AddDate(0, 0, 1)
	}
	return d, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) listMeetings(c *gin.Context) {
	filter, err := meetingFilter(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	views, err := s.meetings.List(c.Request.Context(), filter, viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, views)
}

func (s *Server) getMeeting(c *gin.Context) {
	id, valid := s.pathID(c)
	if !valid {
		return
	}
	view, err := s.meetings.Get(c.Request.Context(), id, viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

func (s *Server) praisePhrases(c *gin.Context) {
	ok(c, http.StatusOK, s.praises.Phrases())
}
