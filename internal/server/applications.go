package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/pkg/db/pagination"
)

type listApplicationsQuery struct {
	PageToken   string `form:"page_token"`
	PageSize    int    `form:"page_size"`
	JobID       string `form:"job_id"`
	CandidateID string `form:"candidate_id"`
	Status      string `form:"status"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (s *Server) SubmitApplication(c *gin.Context) {
	var req recruitmentdomain.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recruitmentSvc.SubmitApplication(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetApplication(c *gin.Context) {
	resp, err := s.recruitmentSvc.GetApplication(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListApplications(c *gin.Context) {
	var query listApplicationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recruitmentSvc.ListApplications(c.Request.Context(), recruitmentdomain.ListApplicationsRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		JobID:       strings.TrimSpace(query.JobID),
		CandidateID: strings.TrimSpace(query.CandidateID),
		Status:      strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Applications, "page_info": resp.PageInfo})
}

// ChangeApplicationStatus drives the manual part of the pipeline. OFFERED and
// HIRED are rejected here since only the offer workflow may set them.
func (s *Server) ChangeApplicationStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recruitmentSvc.ChangeApplicationStatus(c.Request.Context(), recruitmentdomain.ChangeStatusRequest{
		ApplicationID: strings.TrimSpace(c.Param("id")),
		Status:        req.Status,
		Reason:        req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListStatusHistory(c *gin.Context) {
	resp, err := s.recruitmentSvc.ListStatusHistory(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ScheduleInterview(c *gin.Context) {
	var req recruitmentdomain.ScheduleInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ApplicationID = strings.TrimSpace(c.Param("id"))

	resp, err := s.recruitmentSvc.ScheduleInterview(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListInterviews(c *gin.Context) {
	resp, err := s.recruitmentSvc.ListInterviews(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
