package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/bagswap/internal/logger"
)

// TelegramService sends admin notifications to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
	log         logger.Logger
}

// NewTelegramService creates a new TelegramService. Empty credentials disable sending.
func NewTelegramService(botToken, adminChatID string, log logger.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// WithBaseURL points the service at a different API host.
func (s *TelegramService) WithBaseURL(url string) *TelegramService {
	s.baseURL = strings.TrimRight(url, "/")
	return s
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Enabled reports whether admin notifications can be delivered.
func (s *TelegramService) Enabled() bool {
	return s != nil && s.botToken != "" && s.adminChatID != ""
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		s.log.Warn("telegram send failed", "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("telegram unexpected status", "status", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if !s.Enabled() {
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// FormatPrice formats an amount in minor units with thousand separators.
func FormatPrice(amountMinor int64, currency string) string {
	if currency == "" {
		currency = "INR"
	}
	negative := amountMinor < 0
	if negative {
		amountMinor = -amountMinor
	}

	str := fmt.Sprintf("%d", amountMinor/100)
	var result strings.Builder
	if negative {
		result.WriteString("-")
	}
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}
	if cents := amountMinor % 100; cents != 0 {
		result.WriteString(fmt.Sprintf(".%02d", cents))
	}

	return result.String() + " " + strings.ToUpper(currency)
}

// DisputeNotification describes a dispute for the admin chat.
type DisputeNotification struct {
	MatchID    string
	FlightNo   string
	FlightDate string
	Reason     string
	Details    string
	Amount     int64
	Currency   string
	Resolution string
}

// NotifyDisputeOpened tells admins a match needs review.
func (s *TelegramService) NotifyDisputeOpened(d DisputeNotification) error {
	if !s.Enabled() {
		return nil
	}

	message := fmt.Sprintf(`<b>⚠️ NEW DISPUTE</b>
<b>Match:</b> %s
<b>Flight:</b> %s %s
<b>Reason:</b> %s
<b>Details:</b> %s
<b>Held:</b> %s
━━━━━━━━━━━━━━━━━━`,
		d.MatchID,
		d.FlightNo,
		d.FlightDate,
		d.Reason,
		d.Details,
		FormatPrice(d.Amount, d.Currency),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifyDisputeResolved records an admin decision in the chat.
func (s *TelegramService) NotifyDisputeResolved(d DisputeNotification) error {
	if !s.Enabled() {
		return nil
	}

	message := fmt.Sprintf(`<b>✅ DISPUTE RESOLVED</b>
<b>Match:</b> %s
<b>Resolution:</b> %s
<b>Amount:</b> %s`,
		d.MatchID,
		d.Resolution,
		FormatPrice(d.Amount, d.Currency),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
