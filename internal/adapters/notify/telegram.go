package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram implementa ports.Notifier enviando mensajes vía bot API.
// Fire-and-forget: un fallo del envío se loguea y no interrumpe nada.
type Telegram struct {
	http    *http.Client
	baseURL string
	token   string
	chatID  string
	log     *slog.Logger
}

// NewTelegram crea el notificador. Token y chat ID vienen del entorno
// (TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID en el .env).
func NewTelegram(token, chatID string, log *slog.Logger) *Telegram {
	return &Telegram{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: telegramAPIBase,
		token:   token,
		chatID:  chatID,
		log:     log,
	}
}

func (t *Telegram) NotifyBet(ctx context.Context, bet domain.Bet) error {
	name := domain.TruncateQuestion(bet.Question, bet.MarketID, 60)

	var msg string
	switch bet.State {
	case domain.BetStateOpen:
		msg = fmt.Sprintf("🟢 <b>BET PLACED</b>\n%s\n%s $%.2f @ %.2f\np=%.0f%% conf=%.2f (%s)",
			name, bet.Side, bet.Stake, bet.EntryPrice, bet.Probability*100, bet.Confidence, bet.Model)
	case domain.BetStateResolved:
		icon := "✅"
		if bet.PnL < 0 {
			icon = "❌"
		}
		msg = fmt.Sprintf("%s <b>RESOLVED %s</b>\n%s\nPnL $%+.2f", icon, bet.Outcome, name, bet.PnL)
	case domain.BetStateVoided:
		msg = fmt.Sprintf("⚪ <b>VOIDED</b>\n%s\n$%.2f returned: %s", name, bet.Stake, bet.FailReason)
	default:
		return nil // las transiciones intermedias no generan alerta
	}
	return t.send(ctx, msg)
}

func (t *Telegram) NotifyCycle(ctx context.Context, candidates []domain.EdgeCandidate, bets []domain.Bet) error {
	placed := placedCount(bets)
	if placed == 0 {
		return nil // sin apuestas nuevas no hay nada que alertar
	}

	msg := fmt.Sprintf("🎯 <b>CYCLE</b> — %d candidates, %d placed\n", len(candidates), placed)
	shown := 0
	for _, cand := range candidates {
		if shown >= 5 {
			break
		}
		msg += fmt.Sprintf("\n%s %s\nscore %+.3f, p=%.0f%% (%s)",
			cand.Side, domain.TruncateQuestion(cand.Question, cand.MarketID, 50), cand.Score, cand.Probability*100, cand.Model)
		shown++
	}
	return t.send(ctx, msg)
}

func (t *Telegram) NotifyReport(ctx context.Context, report domain.CalibrationReport) error {
	msg := fmt.Sprintf("📊 <b>CALIBRATION</b> — %d bets\nwin rate %.1f%%\nPnL $%.2f (ROI %+.1f%%)",
		report.SampleSize, report.WinRate*100, report.TotalPnL, report.OverallROI*100)
	return t.send(ctx, msg)
}

// send publica el mensaje en el chat configurado. Nunca devuelve error por
// fallo remoto; el contrato del Notifier es no bloquear el ciclo.
func (t *Telegram) send(ctx context.Context, text string) error {
	if t.token == "" || t.chatID == "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("telegram.send: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram.send: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		t.log.Warn("telegram send failed", "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		t.log.Warn("telegram API error", "status", resp.StatusCode)
	}
	return nil
}
