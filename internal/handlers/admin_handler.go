package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
	"github.com/Gantur-Enbotics/xmas-2025/internal/services"
	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

type AdminHandler struct {
	Auth    AuthService
	Letters LetterService
	PDF     PDFGenerator
}

func NewAdminHandler(auth AuthService, letters LetterService, pdf PDFGenerator) *AdminHandler {
	return &AdminHandler{Auth: auth, Letters: letters, PDF: pdf}
}

// @Summary      Admin login
// @Description  Checks the shared admin credential and returns a bearer token for the dashboard.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// @Summary      List letters
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/letters [get]
func (h *AdminHandler) List(c *gin.Context) {
	letters, err := h.Letters.ListAll()
	if err != nil {
		logger.Error("admin list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if letters == nil {
		letters = []*models.Letter{}
	}
	c.JSON(http.StatusOK, gin.H{"letters": letters})
}

// @Summary      Create a letter
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.LetterInput  true  "Letter"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/letters [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var in models.LetterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.Letters.Create(&in)
	if err != nil {
		respondLetterError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"letter": l})
}

// @Summary      Update a letter
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.LetterInput  true  "Letter patch (id required)"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/letters [put]
func (h *AdminHandler) Update(c *gin.Context) {
	var in models.LetterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.Letters.Update(&in)
	if err != nil {
		respondLetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"letter": l})
}

// @Summary      Soft-delete a letter
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  query     string  true  "Letter ID"
// @Success      200 {object}  map[string]string
// @Failure      400 {object}  map[string]string
// @Failure      404 {object}  map[string]string
// @Router       /admin/letters [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Letter ID is required"})
		return
	}
	if err := h.Letters.Delete(id); err != nil {
		respondLetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Letter deleted successfully"})
}

// @Summary      Export a letter as PDF
// @Tags         Admin
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path  string  true  "Letter ID"
// @Success      200
// @Failure      404 {object}  map[string]string
// @Router       /admin/letters/{id}/pdf [get]
func (h *AdminHandler) ExportPDF(c *gin.Context) {
	l, err := h.Letters.GetByID(c.Param("id"))
	if err != nil {
		respondLetterError(c, err)
		return
	}
	pdf, err := h.PDF.GenerateLetter(l)
	if err != nil {
		logger.Error("letter pdf failed", zap.String("letter_id", l.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=letter_%s.pdf", l.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func respondLetterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrLetterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Letter not found"})
	case errors.Is(err, services.ErrPhoneExists):
		c.JSON(http.StatusConflict, gin.H{"error": "A letter already exists for this phone number"})
	default:
		logger.Error("admin letter operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
