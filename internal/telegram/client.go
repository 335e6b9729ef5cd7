// Package telegram is a minimal Bot API client covering the three calls the
// bot needs: getUpdates long-polling, sendMessage and sendChatAction.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const sendTimeout = 10 * time.Second

type Client struct {
	http  *resty.Client
	token string
}

func NewClient(token string) *Client {
	client := resty.New()
	client.SetBaseURL("https://api.telegram.org/bot" + token)

	return &Client{
		http:  client,
		token: token,
	}
}

// GetUpdates long-polls for pending updates. timeoutSec is the server-side
// hold; the request itself is cut off a few seconds later. A timeout is a
// normal long-poll outcome and is reported via IsTimeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec+5)*time.Second)
	defer cancel()

	var result updatesResponse
	resp, err := c.http.R().
		SetContext(reqCtx).
		SetQueryParams(map[string]string{
			"offset":  strconv.FormatInt(offset, 10),
			"timeout": strconv.Itoa(timeoutSec),
		}).
		SetResult(&result).
		Get("/getUpdates")
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("getUpdates: status %d: %s", resp.StatusCode(), result.Description)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: not ok: %s", result.Description)
	}

	return result.Result, nil
}

// SendMessage posts a Markdown-formatted reply. Without a token it logs the
// message instead, which keeps local runs usable.
func (c *Client) SendMessage(chatID int64, text string) error {
	if c.token == "" {
		preview := text
		if len(preview) > 150 {
			preview = preview[:150]
		}
		log.Printf("MSG→%d: %s", chatID, preview)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	var result apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		SetResult(&result).
		Post("/sendMessage")
	if err != nil {
		return fmt.Errorf("sendMessage to %d: %w", chatID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendMessage to %d: status %d: %s", chatID, resp.StatusCode(), result.Description)
	}
	return nil
}

// SendChatAction emits the "typing…" indicator. Best effort, the caller is
// expected to log and drop any error.
func (c *Client) SendChatAction(chatID int64, action string) error {
	if c.token == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id": chatID,
			"action":  action,
		}).
		Post("/sendChatAction")
	if err != nil {
		return fmt.Errorf("sendChatAction to %d: %w", chatID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendChatAction to %d: status %d", chatID, resp.StatusCode())
	}
	return nil
}

// IsTimeout reports whether err is the normal expiry of a long-poll request
// rather than a transport failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
