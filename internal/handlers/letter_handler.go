package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

type LetterHandler struct {
	Letters LetterService
}

func NewLetterHandler(letters LetterService) *LetterHandler {
	return &LetterHandler{Letters: letters}
}

// @Summary      Public letter previews
// @Description  Lists previews (title + truncated body) of all active letters, newest first. No full content, no phones.
// @Tags         Letters
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /letters/public [get]
func (h *LetterHandler) PublicList(c *gin.Context) {
	previews, err := h.Letters.ListPublicPreviews()
	if err != nil {
		logger.Error("public previews failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "letters": previews})
}
