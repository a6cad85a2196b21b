// Package notifier talks to the Telegram Bot API: operator messages,
// channel membership checks for telegram tasks, and admin commands.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"Stardust/internal/model"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client

	// Bot API allows roughly 30 requests per second per bot.
	limiter *rate.Limiter
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultAPIBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(25), 5),
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	base := t.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(base, "/"), t.BotToken, method)
}

func (t *TelegramNotifier) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	return t.SendTo(context.Background(), t.ChatID, text)
}

// SendTo sends a message to an arbitrary chat.
func (t *TelegramNotifier) SendTo(ctx context.Context, chatID, text string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	payload := map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.SendTo(ctx, t.ChatID, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// VerifyChannelMembership asks getChatMember whether the player is in the
// task's channel. The player id is the Telegram user id.
func (t *TelegramNotifier) VerifyChannelMembership(ctx context.Context, playerID string, task model.Task) (bool, error) {
	if task.ChannelID == "" {
		return false, fmt.Errorf("task %s has no channel", task.ID)
	}
	if err := t.wait(ctx); err != nil {
		return false, err
	}
	q := url.Values{}
	q.Set("chat_id", task.ChannelID)
	q.Set("user_id", playerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint("getChatMember")+"?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("get chat member: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			Status   string `json:"status"`
			IsMember bool   `json:"is_member"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode chat member: %w", err)
	}
	if !result.OK {
		// "user not found" and friends mean the user is not a member.
		if resp.StatusCode == http.StatusBadRequest {
			return false, nil
		}
		return false, fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, result.Description)
	}
	switch result.Result.Status {
	case "creator", "administrator", "member":
		return true, nil
	case "restricted":
		return result.Result.IsMember, nil
	}
	return false, nil
}

// AnnounceWithdrawal tells the admin chat about a new withdrawal.
func (t *TelegramNotifier) AnnounceWithdrawal(ctx context.Context, p model.Player, w model.Withdrawal) error {
	return t.SendWithRetry(ctx, FormatWithdrawal(p, w), 2)
}
