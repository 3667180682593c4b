package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/internal/salary/export"
)

func (s *Server) CreateSalaryStructure(c *gin.Context) {
	var req salarydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.salarySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSalaryStructures(c *gin.Context) {
	resp, err := s.salarySvc.List(c.Request.Context(), salarydomain.ListRequest{
		Name: strings.TrimSpace(c.Query("name")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSalaryStructure(c *gin.Context) {
	resp, err := s.salarySvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ExportSalaryStructure streams the monthly and annual breakdown as a workbook.
func (s *Server) ExportSalaryStructure(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	content, err := s.salarySvc.ExportBreakdown(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", attachmentDisposition("SalaryStructure_"+id+".xlsx"))
	c.Data(http.StatusOK, export.ContentType, content)
}
