package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
)

type withdrawOfferRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CreateOffer(c *gin.Context) {
	var req recruitmentdomain.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recruitmentSvc.CreateOffer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetOffer(c *gin.Context) {
	s.offerAction(c, s.recruitmentSvc.GetOffer)
}

func (s *Server) SendOffer(c *gin.Context) {
	s.offerAction(c, s.recruitmentSvc.SendOffer)
}

func (s *Server) AcceptOffer(c *gin.Context) {
	s.offerAction(c, s.recruitmentSvc.AcceptOffer)
}

func (s *Server) RejectOffer(c *gin.Context) {
	s.offerAction(c, s.recruitmentSvc.RejectOffer)
}

func (s *Server) WithdrawOffer(c *gin.Context) {
	var req withdrawOfferRequest
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.recruitmentSvc.WithdrawOffer(c.Request.Context(), recruitmentdomain.WithdrawOfferRequest{
		OfferID: strings.TrimSpace(c.Param("id")),
		Reason:  req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ConvertToEmployee(c *gin.Context) {
	resp, err := s.recruitmentSvc.ConvertToEmployee(c.Request.Context(), recruitmentdomain.ConvertToEmployeeRequest{
		OfferID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) offerAction(c *gin.Context, fn func(context.Context, string) (*recruitmentdomain.OfferResponse, error)) {
	resp, err := fn(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
