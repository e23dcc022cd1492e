package generative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"google.golang.org/genai"
)

//go:generate mockgen -source=image.go -destination=mocks/mock_image.go -package=mocks

type Media struct {
	Data     []byte
	MIMEType string
}

type ImageRequest struct {
	Model       string
	Prompt      string
	Images      []Media
	AspectRatio string
}

type ImageResult struct {
	Image Media
	Text  string
}

// ImageEditor turns a prompt and input images into a new image.
type ImageEditor interface {
	EditImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiImageEditor struct {
	models contentModel
}

func NewGeminiImageEditor(ctx context.Context, apiKey, baseURL string) (*GeminiImageEditor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimSuffix(baseURL, "/v1beta")}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	slog.Info("genai client initialized", "method", "NewGeminiImageEditor")
	return &GeminiImageEditor{models: client.Models}, nil
}

func (e *GeminiImageEditor) EditImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if req.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}

	resp, err := e.models.GenerateContent(ctx, req.Model, []*genai.Content{{Role: "user", Parts: parts}}, config)
	if err != nil {
		slog.Error("gemini call failed", "method", "EditImage", "model", req.Model, "error", err)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrGenerationFailed, err)
	}
	return parseImageResponse(resp)
}

func parseImageResponse(resp *genai.GenerateContentResponse) (*ImageResult, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", pkgerrors.ErrGenerationFailed)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		msg := fb.BlockReasonMessage
		if msg == "" {
			msg = string(fb.BlockReason)
		}
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrContentBlocked, msg)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", pkgerrors.ErrGenerationFailed)
	}

	candidate := resp.Candidates[0]
	result := &ImageResult{}
	var texts []string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch {
			case part.InlineData != nil && len(part.InlineData.Data) > 0:
				result.Image = Media{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}
			case part.Text != "":
				texts = append(texts, part.Text)
			}
		}
	}
	result.Text = strings.Join(texts, "\n")

	if len(result.Image.Data) > 0 {
		return result, nil
	}
	switch candidate.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
		return nil, fmt.Errorf("%w: the request was blocked for safety reasons, please modify your prompt or image", pkgerrors.ErrContentBlocked)
	}
	if result.Text != "" {
		return nil, fmt.Errorf("%w: the model responded: %q", pkgerrors.ErrGenerationFailed, result.Text)
	}
	return nil, fmt.Errorf("%w: the model did not return an image", pkgerrors.ErrGenerationFailed)
}
