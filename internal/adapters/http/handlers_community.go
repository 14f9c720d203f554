package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jidokhae/internal/ports/input"
)

func (s *Server) listReviews(c *gin.Context) {
	meetingID, valid := s.pathID(c)
	if !valid {
		return
	}
	reviews, err := s.reviews.ListForMeeting(c.Request.Context(), meetingID, viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, reviews)
}

func (s *Server) writeReview(c *gin.Context) {
	meetingID, valid := s.pathID(c)
	if !valid {
		return
	}
	var in input.ReviewInput
	if !s.bind(c, &in) {
		return
	}
	review, err := s.reviews.Write(c.Request.Context(), viewer(c), meetingID, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, review)
}

func (s *Server) givePraise(c *gin.Context) {
	meetingID, valid := s.pathID(c)
	if !valid {
		return
	}
	var in input.PraiseInput
	if !s.bind(c, &in) {
		return
	}
	praise, err := s.praises.Give(c.Request.Context(), viewer(c), meetingID, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, praise)
}
