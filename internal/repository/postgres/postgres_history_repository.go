package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const historyColumns = `id, user_id, type, original_image_url, result_image_url, result_video_url, secondary_image_url, transformation_key, prompt, created_at`

type PostgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

func scanHistory(row rowScanner) (*models.HistoryItem, error) {
	var item models.HistoryItem
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Type,
		&item.OriginalImageURL,
		&item.ResultImageURL,
		&item.ResultVideoURL,
		&item.SecondaryImageURL,
		&item.TransformationKey,
		&item.Prompt,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PostgresHistoryRepository) Create(ctx context.Context, item *models.HistoryItem) (err error) {
	ctx, span, finish := startCall(ctx, "history-repository", "CreateHistory")
	defer func() { finish(err) }()

	if item == nil {
		err = pkgerrors.ErrNilHistoryItem
		return err
	}
	span.SetAttributes(attribute.String("history_id", item.ID), attribute.Int64("user_id", item.UserID))

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO history (id, user_id, type, original_image_url, result_image_url, result_video_url, secondary_image_url, transformation_key, prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		item.ID, item.UserID, item.Type, item.OriginalImageURL, item.ResultImageURL,
		item.ResultVideoURL, item.SecondaryImageURL, item.TransformationKey, item.Prompt,
	).Scan(&item.CreatedAt)
	if err != nil {
		slog.Error("failed to create history item", "method", "Create", "user_id", item.UserID, "error", err)
		err = fmt.Errorf("failed to create history item: %w", err)
		return err
	}

	slog.Info("history item created", "method", "Create", "history_id", item.ID, "user_id", item.UserID, "type", item.Type)
	return nil
}

func (r *PostgresHistoryRepository) GetByID(ctx context.Context, userID int64, id string) (item *models.HistoryItem, err error) {
	ctx, _, finish := startCall(ctx, "history-repository", "GetHistoryByID")
	defer func() { finish(err) }()

	item, err = scanHistory(r.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE id = $1 AND user_id = $2`, id, userID))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrHistoryNotFound
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to get history item: %w", err)
		return nil, err
	}
	return item, nil
}

func (r *PostgresHistoryRepository) ListByUser(ctx context.Context, userID int64, page models.Page) (items []models.HistoryItem, total int, err error) {
	ctx, _, finish := startCall(ctx, "history-repository", "ListHistory")
	defer func() { finish(err) }()

	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		err = fmt.Errorf("failed to count history: %w", err)
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset())
	if err != nil {
		slog.Error("failed to list history", "method", "ListByUser", "user_id", userID, "error", err)
		err = fmt.Errorf("failed to list history: %w", err)
		return nil, 0, err
	}
	defer rows.Close()

	items = make([]models.HistoryItem, 0, page.Limit)
	for rows.Next() {
		item, scanErr := scanHistory(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan history item: %w", scanErr)
			return nil, 0, err
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to iterate history: %w", err)
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresHistoryRepository) Delete(ctx context.Context, userID int64, id string) (err error) {
	ctx, _, finish := startCall(ctx, "history-repository", "DeleteHistory")
	defer func() { finish(err) }()

	res, err := r.db.ExecContext(ctx, `DELETE FROM history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		slog.Error("failed to delete history item", "method", "Delete", "history_id", id, "error", err)
		err = fmt.Errorf("failed to delete history item: %w", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrHistoryNotFound
		return err
	}

	slog.Info("history item deleted", "method", "Delete", "history_id", id, "user_id", userID)
	return nil
}
