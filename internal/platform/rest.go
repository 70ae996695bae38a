package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response from the platform REST API. The message text
// is preserved verbatim so callers can classify known benign races.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform api status %d (code %d): %s", e.Status, e.Code, e.Message)
}

// Client is a minimal REST client for the messaging platform.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   token,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateInteractionResponse acknowledges an interaction. The platform accepts
// exactly one acknowledgement per interaction.
func (c *Client) CreateInteractionResponse(ctx context.Context, interactionID, token string, resp InteractionResponse) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", interactionID, token)
	var files []File
	if resp.Data != nil {
		files = resp.Data.Files
	}
	return c.do(ctx, http.MethodPost, path, resp, files, nil)
}

// CreateFollowupMessage posts a follow-up to an acknowledged interaction and
// returns the created message.
func (c *Client) CreateFollowupMessage(ctx context.Context, applicationID, token string, msg MessageCreate) (*Message, error) {
	path := fmt.Sprintf("/webhooks/%s/%s?wait=true", applicationID, token)
	var out Message
	if err := c.do(ctx, http.MethodPost, path, msg, msg.Files, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMessage posts a message to a channel and returns the created message.
func (c *Client) CreateMessage(ctx context.Context, channelID string, msg MessageCreate) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	var out Message
	if err := c.do(ctx, http.MethodPost, path, msg, msg.Files, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChannelMessage fetches a single message by id.
func (c *Client) ChannelMessage(ctx context.Context, channelID, messageID string) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	var out Message
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddMemberRole grants a role to a guild member.
func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	return c.do(ctx, http.MethodPut, path, nil, nil, nil)
}

// GuildMember fetches a guild member with its role set.
func (c *Client) GuildMember(ctx context.Context, guildID, userID string) (*Member, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	var out Member
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OverwriteGuildCommands registers the full slash-command set for a guild.
func (c *Client) OverwriteGuildCommands(ctx context.Context, applicationID, guildID string, commands []ApplicationCommand) error {
	path := fmt.Sprintf("/applications/%s/guilds/%s/commands", applicationID, guildID)
	return c.do(ctx, http.MethodPut, path, commands, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, files []File, out any) error {
	var body io.Reader
	contentType := ""

	switch {
	case len(files) > 0:
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		if err := w.WriteField("payload_json", string(raw)); err != nil {
			return fmt.Errorf("write payload field: %w", err)
		}
		for i, f := range files {
			part, err := w.CreateFormFile(fmt.Sprintf("files[%d]", i), f.Name)
			if err != nil {
				return fmt.Errorf("create file part: %w", err)
			}
			if _, err := part.Write(f.Contents); err != nil {
				return fmt.Errorf("write file part: %w", err)
			}
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close multipart: %w", err)
		}
		body = buf
		contentType = w.FormDataContentType()
	case payload != nil:
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bot "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
