package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/peoplehub/internal/compensation"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/pkg/db/pagination"
)

type listEmployeesQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

func (s *Server) ListEmployees(c *gin.Context) {
	var query listEmployeesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recruitmentSvc.ListEmployees(c.Request.Context(), recruitmentdomain.ListEmployeesRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Employees, "page_info": resp.PageInfo})
}

func (s *Server) GetEmployee(c *gin.Context) {
	resp, err := s.recruitmentSvc.GetEmployee(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadPayslip(c *gin.Context) {
	lopDays, err := parseOptionalInt(c.Query("lop_days"))
	if err != nil {
		AbortWithError(c, newValidationError("lop_days", "invalid_lop_days", "invalid lop_days"))
		return
	}

	doc, err := s.compensationSvc.Payslip(c.Request.Context(), compensation.PayslipRequest{
		EmployeeID: strings.TrimSpace(c.Param("id")),
		Period:     strings.TrimSpace(c.Param("period")),
		LOPDays:    lopDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sendDocument(c, doc)
}

func (s *Server) DownloadOfferAnnexure(c *gin.Context) {
	doc, err := s.compensationSvc.OfferAnnexure(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sendDocument(c, doc)
}

func sendDocument(c *gin.Context, doc *compensation.Document) {
	c.Header("Content-Disposition", attachmentDisposition(doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

func attachmentDisposition(name string) string {
	return `attachment; filename="` + strings.ReplaceAll(name, `"`, "") + `"`
}
