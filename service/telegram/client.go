// Package telegram implements the minimal Bot API surface the query bot
// needs: long polling for updates and sending HTML-formatted replies.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paperlab/querybot/internal/backoff"
)

// Update is a single inbound event from getUpdates.
type Update struct {
	ID      int64    `json:"update_id"`
	Message *Message `json:"message,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	ID   int64  `json:"message_id"`
	Text string `json:"text,omitempty"`
	Chat Chat   `json:"chat"`
	From *User  `json:"from,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// User identifies a message sender.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Client talks to the Telegram Bot API for a single bot token.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	pollTimeout int
	offset      int64
	retry       backoff.Policy
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (e.g. for tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithPollTimeout sets the getUpdates long poll timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(c *Client) { c.pollTimeout = seconds }
}

// WithRetryPolicy overrides the retry schedule for sendMessage.
func WithRetryPolicy(policy backoff.Policy) Option {
	return func(c *Client) { c.retry = policy }
}

// New creates a new Client for the supplied bot token.
func New(token string, options ...Option) *Client {
	ret := &Client{
		baseURL:     "https://api.telegram.org",
		token:       token,
		pollTimeout: 30,
		retry:       backoff.DefaultPolicy(),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.httpClient == nil {
		// long poll needs headroom beyond the poll timeout
		ret.httpClient = &http.Client{Timeout: time.Duration(ret.pollTimeout+15) * time.Second}
	}
	return ret
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// Updates long polls for new updates, advancing the internal offset so each
// update is delivered once.
func (c *Client) Updates(ctx context.Context) ([]*Update, error) {
	payload := map[string]interface{}{
		"timeout":         c.pollTimeout,
		"allowed_updates": []string{"message"},
	}
	if c.offset != 0 {
		payload["offset"] = c.offset
	}
	var updates []*Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	for _, update := range updates {
		if update.ID >= c.offset {
			c.offset = update.ID + 1
		}
	}
	return updates, nil
}

// Send delivers an HTML-formatted message to a chat.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	return backoff.Retry(ctx, c.retry, func() error {
		return c.call(ctx, "sendMessage", payload, nil)
	})
}

// Me verifies the token by calling getMe and returns the bot's username.
func (c *Client) Me(ctx context.Context) (string, error) {
	var me User
	if err := c.call(ctx, "getMe", map[string]interface{}{}, &me); err != nil {
		return "", err
	}
	return me.Username, nil
}

func (c *Client) call(ctx context.Context, method string, payload, result interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	URL := fmt.Sprintf("%v/bot%v/%v", c.baseURL, c.token, method)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("telegram %v failed: %w", method, err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	parsed := &apiResponse{}
	if err = json.Unmarshal(body, parsed); err != nil {
		return fmt.Errorf("telegram %v returned invalid payload: %w", method, err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram %v failed: %v (code %v)", method, parsed.Description, parsed.ErrorCode)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(parsed.Result, result)
}
