package models

import "time"

type HistoryType string

const (
	HistoryImage HistoryType = "image"
	HistoryVideo HistoryType = "video"
)

type HistoryItem struct {
	ID                string      `json:"id"`
	UserID            int64       `json:"-"`
	Type              HistoryType `json:"type"`
	OriginalImageURL  string      `json:"originalImageUrl,omitempty"`
	ResultImageURL    string      `json:"resultImageUrl,omitempty"`
	ResultVideoURL    string      `json:"resultVideoUrl,omitempty"`
	SecondaryImageURL string      `json:"secondaryImageUrl,omitempty"`
	TransformationKey string      `json:"transformationKey"`
	Prompt            string      `json:"prompt,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}
