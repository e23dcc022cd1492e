package generative

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/tidwall/gjson"
)

//go:generate mockgen -source=video.go -destination=mocks/mock_video.go -package=mocks

type VideoRequest struct {
	Prompt      string
	Image       *Media
	AspectRatio string
}

// VideoGenerator drives the long-running video operation of the model API.
type VideoGenerator interface {
	StartVideo(ctx context.Context, req VideoRequest) (string, error)
	WaitVideo(ctx context.Context, operation string) (string, error)
	Download(ctx context.Context, uri string) ([]byte, string, error)
}

type VideoClient struct {
	apiKey       string
	baseURL      string
	model        string
	httpClient   *http.Client
	pollInterval time.Duration
	pollAttempts int
}

func NewVideoClient(apiKey, baseURL, model string, pollInterval time.Duration, pollAttempts int) *VideoClient {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if pollAttempts <= 0 {
		pollAttempts = 60
	}
	return &VideoClient{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

func (c *VideoClient) endpoint(path string) string {
	return fmt.Sprintf("%s/%s?key=%s", c.baseURL, strings.TrimLeft(path, "/"), url.QueryEscape(c.apiKey))
}

func (c *VideoClient) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = truncateBody(raw)
		}
		return nil, fmt.Errorf("%w: status=%d %s", pkgerrors.ErrGenerationFailed, resp.StatusCode, msg)
	}
	return raw, nil
}

func (c *VideoClient) StartVideo(ctx context.Context, req VideoRequest) (string, error) {
	payload := map[string]any{
		"prompt": req.Prompt,
		"config": map[string]any{
			"numberOfVideos": 1,
			"aspectRatio":    req.AspectRatio,
		},
	}
	if req.Image != nil && len(req.Image.Data) > 0 {
		payload["image"] = map[string]any{
			"imageBytes": base64.StdEncoding.EncodeToString(req.Image.Data),
			"mimeType":   req.Image.MIMEType,
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.endpoint(c.model+":generateVideos"), body)
	if err != nil {
		slog.Error("video start failed", "method", "StartVideo", "model", c.model, "error", err)
		return "", err
	}
	name := gjson.GetBytes(raw, "name").String()
	if name == "" {
		return "", fmt.Errorf("%w: empty operation name", pkgerrors.ErrGenerationFailed)
	}

	slog.Info("video operation started", "method", "StartVideo", "operation", name)
	return name, nil
}

// WaitVideo polls the operation until it is done and returns the video URI.
func (c *VideoClient) WaitVideo(ctx context.Context, operation string) (string, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		raw, err := c.do(ctx, http.MethodGet, c.endpoint("operations/"+operation), nil)
		if err != nil {
			return "", err
		}

		op := gjson.ParseBytes(raw)
		if op.Get("done").Bool() {
			if msg := op.Get("error.message"); msg.Exists() {
				return "", fmt.Errorf("%w: %s", pkgerrors.ErrGenerationFailed, msg.String())
			}
			uri := op.Get("response.generatedVideos.0.video.uri").String()
			if uri == "" {
				return "", fmt.Errorf("%w: video generation completed, but no download link was found", pkgerrors.ErrGenerationFailed)
			}
			slog.Info("video operation completed", "method", "WaitVideo", "operation", operation, "attempt", attempt+1)
			return uri, nil
		}

		if attempt%10 == 0 {
			slog.Info("video operation running", "method", "WaitVideo", "operation", operation, "attempt", attempt+1, "max_attempts", c.pollAttempts)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return "", fmt.Errorf("%w: operation timeout after %d attempts", pkgerrors.ErrGenerationFailed, c.pollAttempts)
}

func (c *VideoClient) Download(ctx context.Context, uri string) ([]byte, string, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+sep+"key="+url.QueryEscape(c.apiKey), nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: download status=%d", pkgerrors.ErrGenerationFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read video: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "video/mp4"
	}
	return data, contentType, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
