package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

// NotifyService announces unlocks to the admin over email and/or a
// Telegram bot. Both channels are optional and best effort: a delivery
// failure is logged and never surfaced to the unlock request.
type NotifyService struct {
	dialer     *gomail.Dialer
	from       string
	adminEmail string

	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifyService(dialer *gomail.Dialer, from, adminEmail string, bot *tgbotapi.BotAPI, chatID int64) *NotifyService {
	return &NotifyService{
		dialer:     dialer,
		from:       from,
		adminEmail: adminEmail,
		bot:        bot,
		chatID:     chatID,
	}
}

func (s *NotifyService) LetterUnlocked(l *models.Letter) {
	if s == nil {
		return
	}
	s.sendEmail(l)
	s.sendTelegram(l)
}

func (s *NotifyService) sendEmail(l *models.Letter) {
	if s.dialer == nil || s.adminEmail == "" {
		return
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.adminEmail)
	m.SetHeader("Subject", "Letter unlocked")

	body := fmt.Sprintf(`
		<h3>A letter was unlocked</h3>
		<p>Title: <strong>%s</strong></p>
		<p>Phone: %s</p>
	`, l.Title, l.Phone)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		logger.Warn("unlock email failed", zap.String("letter_id", l.ID), zap.Error(err))
	}
}

func (s *NotifyService) sendTelegram(l *models.Letter) {
	if s.bot == nil || s.chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("Letter %q unlocked by %s", l.Title, l.Phone))
	if _, err := s.bot.Send(msg); err != nil {
		logger.Warn("unlock telegram failed", zap.String("letter_id", l.ID), zap.Error(err))
	}
}
