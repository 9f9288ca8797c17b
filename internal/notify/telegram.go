package notify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"llm-trader/internal/interfaces"
)

// Telegram sends summaries through the Telegram bot API.
type Telegram struct {
	client *resty.Client
	token  string
	chatID string
}

var _ interfaces.Notifier = (*Telegram)(nil)

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		client: resty.New().SetBaseURL("https://api.telegram.org"),
		token:  token,
		chatID: chatID,
	}
}

func (t *Telegram) Send(ctx context.Context, subject, body string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id": t.chatID,
			"text":    subject + "\n\n" + body,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("telegram http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
