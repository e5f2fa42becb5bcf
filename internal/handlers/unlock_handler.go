package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gantur-Enbotics/xmas-2025/internal/services"
	"github.com/Gantur-Enbotics/xmas-2025/internal/utils"
	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

type UnlockHandler struct {
	Unlock UnlockService
}

func NewUnlockHandler(unlock UnlockService) *UnlockHandler {
	return &UnlockHandler{Unlock: unlock}
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

// @Summary      Pre-check before sending a verification code
// @Description  Looks up the active letter for the phone and applies the resend cooldown. Mutates nothing.
// @Tags         Unlock
// @Accept       json
// @Produce      json
// @Param        body  body      handlers.phoneRequest  true  "Phone number"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /precheck [post]
func (h *UnlockHandler) PreCheck(c *gin.Context) {
	phone, ok := bindPhone(c)
	if !ok {
		return
	}

	res, err := h.Unlock.PreCheck(phone)
	if err != nil {
		respondLookupError(c, "precheck", phone, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"canResend":  res.CanResend,
		"lastSentAt": res.LastSentAt,
	})
}

// @Summary      Record a successful verification and unlock the letter
// @Description  Stamps loggedAt and returns the full record. The caller has already proven code possession through the verification provider.
// @Tags         Unlock
// @Accept       json
// @Produce      json
// @Param        body  body      handlers.phoneRequest  true  "Phone number"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /postcheck [post]
func (h *UnlockHandler) PostCheck(c *gin.Context) {
	phone, ok := bindPhone(c)
	if !ok {
		return
	}

	l, err := h.Unlock.PostCheck(phone)
	if err != nil {
		respondLookupError(c, "postcheck", phone, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": l.View()})
}

// bindPhone rejects malformed input before any store access.
func bindPhone(c *gin.Context) (string, bool) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
		return "", false
	}
	phone := utils.NormalizePhone(req.Phone)
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
		return "", false
	}
	return phone, true
}

func respondLookupError(c *gin.Context, op, phone string, err error) {
	if errors.Is(err, services.ErrLetterNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No letter found for this phone number"})
		return
	}
	logger.Error("unlock "+op+" failed", zap.String("phone", phone), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
