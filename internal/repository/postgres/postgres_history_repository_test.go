package postgres_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository/postgres"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyRowColumns = []string{"id", "user_id", "type", "original_image_url", "result_image_url", "result_video_url", "secondary_image_url", "transformation_key", "prompt", "created_at"}

func TestPostgresHistoryRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := postgres.NewPostgresHistoryRepository(db)
	ctx := context.Background()
	now := time.Now()
	id := "5f0c7a4e-8a4c-4b1e-9a55-3c1d2e9b7f10"

	t.Run("Create", func(t *testing.T) {
		item := &models.HistoryItem{
			ID:                id,
			UserID:            1,
			Type:              models.HistoryImage,
			OriginalImageURL:  "https://cdn.example.com/in.png",
			ResultImageURL:    "https://cdn.example.com/out.png",
			TransformationKey: "figurine",
		}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO history`)).
			WithArgs(id, int64(1), models.HistoryImage, item.OriginalImageURL, item.ResultImageURL, "", "", "figurine", "").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

		require.NoError(t, repo.Create(ctx, item))
		assert.Equal(t, now, item.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByIDForeignUser", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM history WHERE id = $1 AND user_id = $2`)).
			WithArgs(id, int64(2)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 2, id)
		assert.ErrorIs(t, err, pkgerrors.ErrHistoryNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("List", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM history WHERE user_id = $1`)).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM history WHERE user_id = $1 ORDER BY created_at DESC, id DESC`)).
			WithArgs(int64(1), 20, 0).
			WillReturnRows(sqlmock.NewRows(historyRowColumns).
				AddRow(id, int64(1), "image", "in", "out", "", "", "figurine", "", now))

		items, total, err := repo.ListByUser(ctx, 1, models.NewPage(0, 0))
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "figurine", items[0].TransformationKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM history WHERE id = $1 AND user_id = $2`)).
			WithArgs(id, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(ctx, 1, id))

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM history WHERE id = $1 AND user_id = $2`)).
			WithArgs(id, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(ctx, 1, id), pkgerrors.ErrHistoryNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
