package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
)

func (s *Server) GenerateOfferLetter(c *gin.Context) {
	var req letterdomain.GenerateLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.letterSvc.GenerateOfferLetter(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GenerateJoiningLetter(c *gin.Context) {
	var req letterdomain.GenerateLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.letterSvc.GenerateJoiningLetter(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// PreviewLetter returns the rendered PDF inline. Nothing is recorded.
func (s *Server) PreviewLetter(c *gin.Context) {
	var req letterdomain.PreviewLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	file, err := s.letterSvc.PreviewLetter(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+strings.ReplaceAll(file.FileName, `"`, "")+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func (s *Server) ListGeneratedLetters(c *gin.Context) {
	resp, err := s.letterSvc.ListGeneratedLetters(c.Request.Context(), letterdomain.ListGeneratedLettersRequest{
		ApplicationID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadLetter(c *gin.Context) {
	file, err := s.letterSvc.OpenLetter(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", attachmentDisposition(file.FileName))
	c.Header("Content-Type", file.ContentType)
	http.ServeContent(c.Writer, c.Request, file.FileName, file.ModTime, bytes.NewReader(file.Content))
}
