package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	slog.Info("connected to Postgres")
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	slog.Info("database schema applied")
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      VARCHAR(50)  NOT NULL,
	phone         VARCHAR(20)  NOT NULL,
	email         VARCHAR(255),
	avatar_url    TEXT         NOT NULL DEFAULT '',
	password_hash VARCHAR(255) NOT NULL,
	credits       BIGINT       NOT NULL DEFAULT 0 CHECK (credits >= 0),
	status        VARCHAR(16)  NOT NULL DEFAULT 'active',
	created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	CONSTRAINT users_username_key UNIQUE (username),
	CONSTRAINT users_phone_key UNIQUE (phone),
	CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS charge_orders (
	id             VARCHAR(64)   PRIMARY KEY,
	user_id        BIGINT        NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	amount         NUMERIC(10,2) NOT NULL,
	credits        BIGINT        NOT NULL,
	payment_method VARCHAR(16)   NOT NULL,
	status         VARCHAR(16)   NOT NULL DEFAULT 'pending',
	payment_id     VARCHAR(128)  NOT NULL DEFAULT '',
	paid_at        TIMESTAMPTZ,
	created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_charge_orders_user ON charge_orders (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS credit_transactions (
	id          BIGSERIAL   PRIMARY KEY,
	user_id     BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type        VARCHAR(16) NOT NULL,
	amount      BIGINT      NOT NULL,
	balance     BIGINT      NOT NULL,
	description TEXT        NOT NULL DEFAULT '',
	order_id    VARCHAR(64) REFERENCES charge_orders(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_credit_transactions_user ON credit_transactions (user_id, id DESC);

CREATE TABLE IF NOT EXISTS history (
	id                  UUID        PRIMARY KEY,
	user_id             BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type                VARCHAR(8)  NOT NULL,
	original_image_url  TEXT        NOT NULL DEFAULT '',
	result_image_url    TEXT        NOT NULL DEFAULT '',
	result_video_url    TEXT        NOT NULL DEFAULT '',
	secondary_image_url TEXT        NOT NULL DEFAULT '',
	transformation_key  VARCHAR(64) NOT NULL,
	prompt              TEXT        NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_history_user ON history (user_id, created_at DESC);
`
