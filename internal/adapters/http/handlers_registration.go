package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/ports/input"
)

type paymentNotice struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Status      string `json:"status"`
}

func (s *Server) register(c *gin.Context) {
	meetingID, valid := s.pathID(c)
	if !valid {
		return
	}
	var req input.RegisterRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.registrations.Register(c.Request.Context(), viewer(c), meetingID, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

func (s *Server) cancelRegistration(c *gin.Context) {
	id, valid := s.pathID(c)
	if !valid {
		return
	}
	res, err := s.registrations.Cancel(c.Request.Context(), viewer(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (s *Server) joinWaitlist(c *gin.Context) {
	meetingID, valid := s.pathID(c)
	if !valid {
		return
	}
	entry, err := s.waitlist.Join(c.Request.Context(), viewer(c), meetingID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, entry)
}

func (s *Server) leaveWaitlist(c *gin.Context) {
	meetingID, valid := s.pathID(c)
	if !valid {
		return
	}
	if err := s.waitlist.Leave(c.Request.Context(), viewer(c), meetingID); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"left": true})
}

// completePayment is called by the front end after the payment widget
// redirects back.
func (s *Server) completePayment(c *gin.Context) {
	var in paymentNotice
	if !s.bind(c, &in) {
		return
	}
	if in.ImpUID == "" {
		s.fail(c, domain.Invalid("imp_uid is required"))
		return
	}
	reg, err := s.registrations.CompletePayment(c.Request.Context(), in.ImpUID, in.MerchantUID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, reg)
}

// paymentWebhook always answers 200 so the gateway does not retry business
// failures. The payment itself is re-fetched from the gateway.
func (s *Server) paymentWebhook(c *gin.Context) {
	var in paymentNotice
	if err := c.ShouldBindJSON(&in); err != nil || in.ImpUID == "" {
		s.logger.Warn("payment webhook without imp_uid", zap.Error(err))
		s.failWithStatus(c, http.StatusOK, domain.Invalid("imp_uid is required"))
		return
	}
	log := s.logger.With(zap.String("imp_uid", in.ImpUID), zap.String("merchant_uid", in.MerchantUID), zap.String("status", in.Status))

	reg, err := s.registrations.CompletePayment(c.Request.Context(), in.ImpUID, in.MerchantUID)
	if err != nil {
		log.Warn("payment webhook not applied", zap.Error(err))
		s.failWithStatus(c, http.StatusOK, err)
		return
	}
	log.Info("payment webhook applied", zap.String("registration_id", reg.ID.String()), zap.String("registration_status", string(reg.Status)))
	ok(c, http.StatusOK, reg)
}
