package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"winescan-app/internal/config"
	"winescan-app/internal/logger"
)

// NewDB MySQLに接続しbun.DBを返す
func NewDB(cfg *config.MySQLConfig) (*bun.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqldb.SetMaxOpenConns(10)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	db := bun.NewDB(sqldb, mysqldialect.New())

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("mysql connected")
	return db, nil
}

// EnsureSchema テーブルがなければ作成する
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []interface{}{
		(*AnalysisCacheModel)(nil),
		(*SavedScanModel)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// 保存スキャンはユーザー単位で新しい順に引く
	_, err := db.NewCreateIndex().
		Model((*SavedScanModel)(nil)).
		Index("idx_saved_scans_user_created").
		Column("user_id", "created_at").
		Exec(ctx)
	if err != nil && !isDuplicateKeyName(err) {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}
