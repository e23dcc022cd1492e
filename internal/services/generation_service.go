package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
	"github.com/nanobananary/studio-api/internal/catalog"
	"github.com/nanobananary/studio-api/internal/config"
	"github.com/nanobananary/studio-api/internal/infrastructure/generative"
	"github.com/nanobananary/studio-api/internal/infrastructure/observability"
	"github.com/nanobananary/studio-api/internal/infrastructure/redis"
	"github.com/nanobananary/studio-api/internal/infrastructure/storage"
	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	videoTransformationKey = "videoGeneration"
	videoJobTTL            = 24 * time.Hour
)

type ImageInput struct {
	TransformationKey string
	Prompt            string
	PrimaryImage      string
	SecondaryImage    string
	Mask              string
	AspectRatio       string
	Enhanced          bool
	RequestID         string
}

type ImageOutput struct {
	ImageURL        string              `json:"imageUrl"`
	StepOneImageURL string              `json:"stepOneImageUrl,omitempty"`
	Text            string              `json:"text,omitempty"`
	Cost            int64               `json:"cost"`
	Balance         int64               `json:"balance"`
	History         *models.HistoryItem `json:"history"`
}

type VideoInput struct {
	Prompt      string
	Image       string
	AspectRatio string
	Enhanced    bool
	RequestID   string
}

type GenerationService interface {
	Transformations() []models.Transformation
	GenerateImage(ctx context.Context, userID int64, in ImageInput) (*ImageOutput, error)
	StartVideo(ctx context.Context, userID int64, in VideoInput) (*models.VideoJob, error)
	GetVideoJob(ctx context.Context, userID int64, jobID string) (*models.VideoJob, error)
}

type generationService struct {
	credits     CreditService
	history     HistoryService
	images      generative.ImageEditor
	videos      generative.VideoGenerator
	storage     storage.ObjectStorage
	redisClient redis.RedisClient
	gemini      config.GeminiConfig
	costs       config.CreditsConfig
	now         func() time.Time
	wg          sync.WaitGroup
}

func NewGenerationService(
	credits CreditService,
	history HistoryService,
	images generative.ImageEditor,
	videos generative.VideoGenerator,
	objectStorage storage.ObjectStorage,
	redisClient redis.RedisClient,
	gemini config.GeminiConfig,
	costs config.CreditsConfig,
) *generationService {
	return &generationService{
		credits:     credits,
		history:     history,
		images:      images,
		videos:      videos,
		storage:     objectStorage,
		redisClient: redisClient,
		gemini:      gemini,
		costs:       costs,
		now:         time.Now,
	}
}

func (s *generationService) Transformations() []models.Transformation {
	return catalog.Transformations()
}

func (s *generationService) cost(enhanced bool) int64 {
	if enhanced {
		return s.costs.EnhancedImageCost
	}
	return s.costs.ImageCost
}

func maskedPrompt(prompt string) string {
	return fmt.Sprintf("Apply the following instruction only to the masked area of the image: \"%s\". Preserve the unmasked area.", prompt)
}

func decodeOptional(raw string) (*generative.Media, error) {
	if raw == "" {
		return nil, nil
	}
	data, mimeType, err := storage.DecodeDataURL(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidInput, err)
	}
	return &generative.Media{Data: data, MIMEType: mimeType}, nil
}

type imagePlan struct {
	transformation models.Transformation
	prompt         string
	primary        *generative.Media
	secondary      *generative.Media
	mask           *generative.Media
}

func planImage(in ImageInput) (*imagePlan, error) {
	t, err := catalog.Find(in.TransformationKey)
	if err != nil {
		return nil, err
	}
	if t.IsVideo {
		return nil, fmt.Errorf("%w: %s is a video transformation", pkgerrors.ErrInvalidInput, t.Key)
	}

	plan := &imagePlan{transformation: t, prompt: t.Prompt}
	if t.IsCustom() {
		if in.Prompt == "" {
			return nil, pkgerrors.ErrPromptRequired
		}
		plan.prompt = in.Prompt
	}

	if plan.primary, err = decodeOptional(in.PrimaryImage); err != nil {
		return nil, err
	}
	if plan.secondary, err = decodeOptional(in.SecondaryImage); err != nil {
		return nil, err
	}
	if plan.mask, err = decodeOptional(in.Mask); err != nil {
		return nil, err
	}
	if plan.primary == nil && !t.IsPrimaryOptional {
		return nil, pkgerrors.ErrImageRequired
	}
	if plan.secondary == nil && t.IsMultiImage && !t.IsSecondaryOptional {
		return nil, fmt.Errorf("%w: second image required", pkgerrors.ErrImageRequired)
	}
	if plan.mask != nil {
		plan.prompt = maskedPrompt(plan.prompt)
	}
	return plan, nil
}

func appendMedia(list []generative.Media, items ...*generative.Media) []generative.Media {
	for _, m := range items {
		if m != nil {
			list = append(list, *m)
		}
	}
	return list
}

func (s *generationService) GenerateImage(ctx context.Context, userID int64, in ImageInput) (*ImageOutput, error) {
	tracer := otel.Tracer("generation-service")
	ctx, span := tracer.Start(ctx, "GenerateImage")
	defer span.End()
	span.SetAttributes(attribute.String("transformation", in.TransformationKey), attribute.Bool("enhanced", in.Enhanced))

	plan, err := planImage(in)
	if err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}

	model := s.gemini.ImageModel
	if in.Enhanced {
		model = s.gemini.EnhancedImageModel
	}
	aspectRatio := ""
	if in.Enhanced {
		aspectRatio = in.AspectRatio
	}
	cost := s.cost(in.Enhanced)

	charge, err := s.credits.Consume(ctx, userID, cost, "image generation: "+plan.transformation.Key, in.RequestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "consume failed")
		return nil, err
	}

	out, err := s.runImage(ctx, model, aspectRatio, plan)
	if err != nil {
		s.refund(ctx, userID, cost, in.RequestID, "refund: image generation failed")
		observability.GenerationRequests.WithLabelValues("image", generationStatus(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		slog.Error("image generation failed", "user_id", userID, "transformation", plan.transformation.Key, "model", model, "error", err)
		return nil, err
	}

	item := &models.HistoryItem{
		Type:              models.HistoryImage,
		ResultImageURL:    out.ImageURL,
		TransformationKey: plan.transformation.Key,
	}
	if plan.transformation.IsCustom() {
		item.Prompt = in.Prompt
	}
	if plan.primary != nil {
		item.OriginalImageURL = s.uploadQuietly(ctx, "originals", plan.primary)
	}
	if plan.secondary != nil {
		item.SecondaryImageURL = s.uploadQuietly(ctx, "originals", plan.secondary)
	}
	saved, err := s.history.Save(ctx, userID, item)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to save generation history", "user_id", userID, "error", err)
	}

	out.History = saved
	out.Cost = cost
	out.Balance = charge.Balance
	observability.GenerationRequests.WithLabelValues("image", "succeeded").Inc()
	slog.Info("image generated", "user_id", userID, "transformation", plan.transformation.Key, "model", model, "cost", cost)
	return out, nil
}

func (s *generationService) runImage(ctx context.Context, model, aspectRatio string, plan *imagePlan) (*ImageOutput, error) {
	out := &ImageOutput{}
	if plan.transformation.IsTwoStep {
		first, err := s.images.EditImage(ctx, generative.ImageRequest{
			Model:       model,
			Prompt:      plan.prompt,
			Images:      appendMedia(nil, plan.primary, plan.mask),
			AspectRatio: aspectRatio,
		})
		if err != nil {
			return nil, err
		}
		if out.StepOneImageURL, err = s.upload(ctx, "results", &first.Image); err != nil {
			return nil, err
		}

		second, err := s.images.EditImage(ctx, generative.ImageRequest{
			Model:       model,
			Prompt:      plan.transformation.StepTwoPrompt,
			Images:      appendMedia(nil, &first.Image, plan.secondary),
			AspectRatio: aspectRatio,
		})
		if err != nil {
			return nil, err
		}
		if out.ImageURL, err = s.upload(ctx, "results", &second.Image); err != nil {
			return nil, err
		}
		out.Text = second.Text
		return out, nil
	}

	res, err := s.images.EditImage(ctx, generative.ImageRequest{
		Model:       model,
		Prompt:      plan.prompt,
		Images:      appendMedia(nil, plan.primary, plan.mask, plan.secondary),
		AspectRatio: aspectRatio,
	})
	if err != nil {
		return nil, err
	}
	if out.ImageURL, err = s.upload(ctx, "results", &res.Image); err != nil {
		return nil, err
	}
	out.Text = res.Text
	return out, nil
}

func (s *generationService) upload(ctx context.Context, folder string, m *generative.Media) (string, error) {
	url, err := s.storage.Upload(ctx, folder, m.Data, m.MIMEType)
	if err != nil {
		slog.Error("failed to upload media", "folder", folder, "error", err)
		return "", fmt.Errorf("%w: failed to store result", pkgerrors.ErrInternal)
	}
	return url, nil
}

// uploadQuietly stores an input image for the history record. A failure only loses the preview.
func (s *generationService) uploadQuietly(ctx context.Context, folder string, m *generative.Media) string {
	url, err := s.upload(ctx, folder, m)
	if err != nil {
		return ""
	}
	return url
}

// refund returns the charge and frees the request id for a retry.
func (s *generationService) refund(ctx context.Context, userID, amount int64, requestID, description string) {
	if _, err := s.credits.Refund(ctx, userID, amount, description); err != nil {
		slog.Error("failed to refund credits", "user_id", userID, "amount", amount, "error", err)
		return
	}
	s.credits.ReleaseRequest(ctx, userID, requestID)
}

func generationStatus(err error) string {
	if stderrors.Is(err, pkgerrors.ErrContentBlocked) {
		return "blocked"
	}
	return "failed"
}

func videoJobKey(id string) string {
	return "video:job:" + id
}

func (s *generationService) saveJob(ctx context.Context, job *models.VideoJob) {
	job.UpdatedAt = s.now()
	payload, err := json.Marshal(job)
	if err != nil {
		slog.Error("failed to marshal video job", "job_id", job.ID, "error", err)
		return
	}
	if err := s.redisClient.Set(ctx, videoJobKey(job.ID), string(payload), videoJobTTL); err != nil {
		slog.Error("failed to store video job", "job_id", job.ID, "error", err)
	}
}

func (s *generationService) StartVideo(ctx context.Context, userID int64, in VideoInput) (*models.VideoJob, error) {
	tracer := otel.Tracer("generation-service")
	ctx, span := tracer.Start(ctx, "StartVideo")
	defer span.End()

	if in.Prompt == "" {
		span.SetStatus(codes.Error, "prompt required")
		return nil, pkgerrors.ErrPromptRequired
	}
	image, err := decodeOptional(in.Image)
	if err != nil {
		span.SetStatus(codes.Error, "invalid image")
		return nil, err
	}

	cost := s.cost(in.Enhanced)
	if _, err := s.credits.Consume(ctx, userID, cost, "video generation", in.RequestID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "consume failed")
		return nil, err
	}

	operation, err := s.videos.StartVideo(ctx, generative.VideoRequest{Prompt: in.Prompt, Image: image, AspectRatio: in.AspectRatio})
	if err != nil {
		s.refund(ctx, userID, cost, in.RequestID, "refund: video generation failed")
		observability.GenerationRequests.WithLabelValues("video", generationStatus(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "video start failed")
		slog.Error("failed to start video generation", "user_id", userID, "error", err)
		return nil, err
	}

	now := s.now()
	job := &models.VideoJob{
		ID:            uuid.NewString(),
		UserID:        userID,
		Status:        models.JobRunning,
		OperationName: operation,
		Cost:          cost,
		CreatedAt:     now,
	}
	s.saveJob(ctx, job)

	bg := context.WithoutCancel(ctx)
	state := *job
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.finishVideo(bg, state, in.RequestID, in.Prompt, image)
	}()

	slog.Info("video generation started", "user_id", userID, "job_id", job.ID, "operation", operation)
	return job, nil
}

func (s *generationService) finishVideo(ctx context.Context, job models.VideoJob, requestID, prompt string, image *generative.Media) {
	fail := func(err error) {
		s.refund(ctx, job.UserID, job.Cost, requestID, "refund: video generation failed")
		job.Status = models.JobFailed
		job.Error = err.Error()
		s.saveJob(ctx, &job)
		observability.GenerationRequests.WithLabelValues("video", generationStatus(err)).Inc()
		slog.Error("video generation failed", "user_id", job.UserID, "job_id", job.ID, "error", err)
	}

	uri, err := s.videos.WaitVideo(ctx, job.OperationName)
	if err != nil {
		fail(err)
		return
	}
	data, contentType, err := s.videos.Download(ctx, uri)
	if err != nil {
		fail(err)
		return
	}
	videoURL, err := s.upload(ctx, "videos", &generative.Media{Data: data, MIMEType: contentType})
	if err != nil {
		fail(err)
		return
	}

	item := &models.HistoryItem{
		Type:              models.HistoryVideo,
		ResultVideoURL:    videoURL,
		TransformationKey: videoTransformationKey,
		Prompt:            prompt,
	}
	if image != nil {
		item.OriginalImageURL = s.uploadQuietly(ctx, "originals", image)
	}
	if saved, err := s.history.Save(ctx, job.UserID, item); err != nil {
		slog.Error("failed to save video history", "user_id", job.UserID, "job_id", job.ID, "error", err)
	} else {
		job.HistoryID = saved.ID
	}

	job.Status = models.JobSucceeded
	job.VideoURL = videoURL
	s.saveJob(ctx, &job)
	observability.GenerationRequests.WithLabelValues("video", "succeeded").Inc()
	slog.Info("video generated", "user_id", job.UserID, "job_id", job.ID)
}

func (s *generationService) GetVideoJob(ctx context.Context, userID int64, jobID string) (*models.VideoJob, error) {
	tracer := otel.Tracer("generation-service")
	ctx, span := tracer.Start(ctx, "GetVideoJob")
	defer span.End()

	raw, err := s.redisClient.Get(ctx, videoJobKey(jobID))
	if stderrors.Is(err, redis.ErrKeyNotFound) {
		return nil, pkgerrors.ErrJobNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "job lookup failed")
		slog.Error("failed to read video job", "job_id", jobID, "error", err)
		return nil, fmt.Errorf("%w: failed to read job", pkgerrors.ErrInternal)
	}

	var job models.VideoJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		span.RecordError(err)
		slog.Error("failed to unmarshal video job", "job_id", jobID, "error", err)
		return nil, fmt.Errorf("%w: corrupt job record", pkgerrors.ErrInternal)
	}
	if job.UserID != userID {
		return nil, pkgerrors.ErrJobNotFound
	}
	return &job, nil
}

// Wait blocks until background video jobs finish.
func (s *generationService) Wait() {
	s.wg.Wait()
}
