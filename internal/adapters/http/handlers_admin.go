package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type attendanceRequest struct {
	RegistrationIDs []uuid.UUID `json:"registration_ids"`
}

func (s *Server) createMeeting(c *gin.Context) {
	var in input.MeetingInput
	if !s.bind(c, &in) {
		return
	}
	m, err := s.meetings.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

func (s *Server) updateMeeting(c *gin.Context) {
	id, valid := s.pathID(c)
	if !valid {
		return
	}
	var in input.MeetingInput
	if !s.bind(c, &in) {
		return
	}
	m, err := s.meetings.Update(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

func (s *Server) cancelMeeting(c *gin.Context) {
	id, valid := s.pathID(c)
	if !valid {
		return
	}
	n, err := s.meetings.Cancel(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cancelled_registrations": n})
}

func (s *Server) meetingRoster(c *gin.Context) {
	id, valid := s.pathID(c)
	if !valid {
		return
	}
	status := entities.RegistrationStatus(c.Query("status"))
	switch status {
	case "", entities.RegistrationPending, entities.RegistrationPendingTransfer,
		entities.RegistrationConfirmed, entities.RegistrationCancelled:
	default:
		s.fail(c, domain.Invalid("unknown status %q", status))
		return
	}
	roster, err := s.registrations.ListRoster(c.Request.Context(), id, status)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, roster)
}

func (s *Server) exportRoster(c *gin.Context) {
	id, valid := s.pathID(c)
	if !valid {
		return
	}
	name, data, err := s.meetings.ExportRoster(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (s *Server) markAttendance(c *gin.Context) {
	id, valid := s.pathID(c)
	if !valid {
		return
	}
	var in attendanceRequest
	if !s.bind(c, &in) {
		return
	}
	if len(in.RegistrationIDs) == 0 {
		s.fail(c, domain.Invalid("registration_ids is empty"))
		return
	}
	n, err := s.registrations.MarkAttendance(c.Request.Context(), id, in.RegistrationIDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"marked": n})
}

func (s *Server) confirmTransfer(c *gin.Context) {
	id, valid := s.pathID(c)
	if !valid {
		return
	}
	reg, err := s.registrations.ConfirmTransfer(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, reg)
}

func (s *Server) listPolicies(c *gin.Context) {
	policies, err := s.policies.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, policies)
}

func (s *Server) createPolicy(c *gin.Context) {
	var in input.RefundPolicyInput
	if !s.bind(c, &in) {
		return
	}
	policy, err := s.policies.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, policy)
}

func (s *Server) runJob(c *gin.Context) {
	res, err := s.cron.Run(c.Request.Context(), c.Param("job"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
