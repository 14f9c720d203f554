package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// fail writes the error envelope with the status of the error's code.
// Errors outside the taxonomy become 9000 and their detail is only logged.
func (s *Server) fail(c *gin.Context, err error) {
	s.failWithStatus(c, 0, err)
}

func (s *Server) failWithStatus(c *gin.Context, status int, err error) {
	code := domain.CodeOf(err)
	if status == 0 {
		status = code.HTTPStatus()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("code", int(code)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	msg := s.translator.T(locale(c), code.MessageID(), domain.FieldsOf(err))
	c.AbortWithStatusJSON(status, errorEnvelope{Error: errorBody{Code: code, Message: msg}})
}
