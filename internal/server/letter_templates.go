package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
)

const maxTemplateUploadBytes = 10 << 20

func (s *Server) ListLetterTemplates(c *gin.Context) {
	resp, err := s.letterSvc.ListTemplates(c.Request.Context(), letterdomain.ListTemplatesRequest{
		Type: strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLetterTemplate(c *gin.Context) {
	resp, err := s.letterSvc.GetTemplate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UploadLetterTemplate takes a .docx as multipart "file", or an HTML body as
// JSON html_content.
func (s *Server) UploadLetterTemplate(c *gin.Context) {
	var req letterdomain.UploadTemplateRequest

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTemplateUploadBytes)
		header, err := c.FormFile("file")
		if err != nil {
			AbortWithError(c, newValidationError("file", "invalid_template_file", "template file is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		isDefault, _ := strconv.ParseBool(strings.TrimSpace(c.PostForm("is_default")))
		req = letterdomain.UploadTemplateRequest{
			Name:         c.PostForm("name"),
			Type:         c.PostForm("type"),
			TemplateType: c.PostForm("template_type"),
			FileName:     header.Filename,
			Content:      content,
			IsDefault:    isDefault,
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.letterSvc.UploadTemplate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) SetDefaultLetterTemplate(c *gin.Context) {
	resp, err := s.letterSvc.SetDefaultTemplate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
