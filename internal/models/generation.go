package models

import "time"

type Transformation struct {
	Key                 string           `json:"key"`
	TitleKey            string           `json:"titleKey"`
	DescriptionKey      string           `json:"descriptionKey,omitempty"`
	Prompt              string           `json:"prompt,omitempty"`
	StepTwoPrompt       string           `json:"stepTwoPrompt,omitempty"`
	Emoji               string           `json:"emoji"`
	IsMultiImage        bool             `json:"isMultiImage,omitempty"`
	IsTwoStep           bool             `json:"isTwoStep,omitempty"`
	IsVideo             bool             `json:"isVideo,omitempty"`
	IsPrimaryOptional   bool             `json:"isPrimaryOptional,omitempty"`
	IsSecondaryOptional bool             `json:"isSecondaryOptional,omitempty"`
	Items               []Transformation `json:"items,omitempty"`
}

// CustomPrompt marks transformations whose prompt comes from the user.
const CustomPrompt = "CUSTOM"

func (t Transformation) IsCustom() bool {
	return t.Prompt == CustomPrompt
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

type VideoJob struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"userId"`
	Status        JobStatus `json:"status"`
	OperationName string    `json:"operationName,omitempty"`
	Cost          int64     `json:"cost"`
	HistoryID     string    `json:"historyId,omitempty"`
	VideoURL      string    `json:"videoUrl,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
