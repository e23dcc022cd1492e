package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

// ObjectStorage stores generated media and returns a URL clients can fetch.
type ObjectStorage interface {
	Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error)
}

// InlineStorage keeps the payload inside a data: URL. Used when no bucket is configured.
type InlineStorage struct{}

func NewInlineStorage() *InlineStorage {
	return &InlineStorage{}
}

func (InlineStorage) Upload(_ context.Context, _ string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no data to upload")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL splits a data: URL (or bare base64) into bytes and content type.
func DecodeDataURL(raw string) ([]byte, string, error) {
	contentType := "image/png"
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		header, body, ok := strings.Cut(raw, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data url")
		}
		meta := strings.TrimPrefix(header, "data:")
		meta = strings.TrimSuffix(meta, ";base64")
		if meta != "" {
			contentType = meta
		}
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, contentType, nil
}
