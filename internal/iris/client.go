package iris

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kapu/quien-soy-bot-go/internal/constants"
	"github.com/kapu/quien-soy-bot-go/pkg/errors"
	"go.uber.org/zap"
)

const (
	pathConfig = "/config"
	pathReply  = "/reply"

	replyText  = "text"
	replyImage = "image"
)

// Client posts replies to Iris. Text goes out as-is; pictures are fetched
// from their public URL and relayed as base64 image replies.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxImage   int64
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  constants.ImageConfig.UserAgent,
		maxImage:   constants.CacheLimits.ImageBytes,
		logger:     logger,
	}
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.call(ctx, http.MethodGet, pathConfig, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Ping reads /config and reports whether Iris answered.
func (c *Client) Ping(ctx context.Context) error {
	cfg, err := c.GetConfig(ctx)
	if err != nil {
		return err
	}
	c.logger.Debug("Iris reachable",
		zap.Int("port", cfg.Port),
		zap.Int("message_rate", cfg.MessageRate),
	)
	return nil
}

func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	return c.reply(ctx, replyText, room, message)
}

// SendImage posts raw image bytes to the room.
func (c *Client) SendImage(ctx context.Context, room string, image []byte) error {
	return c.reply(ctx, replyImage, room, base64.StdEncoding.EncodeToString(image))
}

// SendImageURL downloads imageURL and relays it to the room.
func (c *Client) SendImageURL(ctx context.Context, room, imageURL string) error {
	image, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		c.logger.Warn("Image download failed", zap.String("url", imageURL), zap.Error(err))
		return err
	}
	return c.SendImage(ctx, room, image)
}

func (c *Client) reply(ctx context.Context, kind, room, data string) error {
	err := c.call(ctx, http.MethodPost, pathReply, ReplyRequest{Type: kind, Room: room, Data: data}, nil)
	if err != nil {
		c.logger.Error("Iris reply failed",
			zap.String("type", kind),
			zap.String("room", room),
			zap.Error(err),
		)
	}
	return err
}

// fetchImage accepts only 200 responses with an image/* content type no
// larger than maxImage bytes.
func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, errors.NewAPIError("invalid image url", http.StatusBadRequest, map[string]any{
			"url": imageURL,
		}).WithCause(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAPIError("image request failed", http.StatusBadGateway, map[string]any{
			"url": imageURL,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAPIError(fmt.Sprintf("image download: %s", resp.Status), resp.StatusCode, map[string]any{
			"url": imageURL,
		})
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "image/") {
		return nil, errors.NewAPIError("not an image", http.StatusUnsupportedMediaType, map[string]any{
			"url":          imageURL,
			"content_type": contentType,
		})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImage+1))
	if err != nil {
		return nil, errors.NewAPIError("image read failed", http.StatusBadGateway, map[string]any{
			"url": imageURL,
		}).WithCause(err)
	}
	if int64(len(data)) > c.maxImage {
		return nil, errors.NewAPIError("image too large", http.StatusRequestEntityTooLarge, map[string]any{
			"url":   imageURL,
			"limit": c.maxImage,
		})
	}
	return data, nil
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newRequest(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("Iris unreachable", http.StatusBadGateway, map[string]any{
			"url": req.URL.String(),
		}).WithCause(err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, req.URL.String(), out)
}

func (c *Client) newRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	if payload == nil {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, errors.NewAPIError("failed to create request", http.StatusInternalServerError, map[string]any{
				"url": url,
			}).WithCause(err)
		}
		return req, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewAPIError("failed to marshal request", http.StatusBadRequest, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewAPIError("failed to create request", http.StatusInternalServerError, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func decodeResponse(resp *http.Response, url string, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.NewAPIError(fmt.Sprintf("Iris API error: %s", resp.Status), resp.StatusCode, map[string]any{
			"url":  url,
			"body": string(snippet),
		})
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewAPIError("failed to decode response", http.StatusBadGateway, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	return nil
}
