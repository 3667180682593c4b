package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
)

func (s *Server) CreateJob(c *gin.Context) {
	var req recruitmentdomain.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recruitmentSvc.CreateJob(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListJobs(c *gin.Context) {
	resp, err := s.recruitmentSvc.ListJobs(c.Request.Context(), recruitmentdomain.ListJobsRequest{
		Status: strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CloseJob(c *gin.Context) {
	resp, err := s.recruitmentSvc.CloseJob(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
