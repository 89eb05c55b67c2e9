package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aouyang1/tvsettings/settings"
)

// RowStore persists the single settings document as a singleton row in
// SQLite. Photo and video collections are stored as JSON columns so a save
// is always a whole-record upsert, never a field-level patch.
type RowStore struct {
	db *sql.DB
}

func NewRowStore(dbPath string) (*RowStore, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rs := &RowStore{db: db}
	if err := rs.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return rs, nil
}

func (rs *RowStore) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tv_settings (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		interval_seconds INTEGER NOT NULL,
		photos           TEXT NOT NULL,
		youtube_videos   TEXT NOT NULL,
		bgm_url          TEXT NOT NULL DEFAULT '',
		updated_at       TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := rs.db.Exec(query)
	return err
}

// Get fetches the settings row. Returns (nil, nil) when no row exists yet,
// signaling the caller to initialize defaults.
func (rs *RowStore) Get(ctx context.Context) (*settings.Record, error) {
	const query = `
		SELECT interval_seconds,
		       photos,
		       youtube_videos,
		       bgm_url,
		       updated_at
		FROM tv_settings
		WHERE singleton = 1
	`

	var interval int
	var photosJSON, videosJSON, bgmURL, updatedAt string

	err := rs.db.QueryRowContext(ctx, query).Scan(&interval, &photosJSON, &videosJSON, &bgmURL, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	record := &settings.Record{
		IntervalSeconds: interval,
		BGMURL:          bgmURL,
	}
	if err := json.Unmarshal([]byte(photosJSON), &record.Photos); err != nil {
		return nil, fmt.Errorf("decode photos column: %w", err)
	}
	if err := json.Unmarshal([]byte(videosJSON), &record.YoutubeVideos); err != nil {
		return nil, fmt.Errorf("decode youtube_videos column: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		record.UpdatedAt = ts
	}

	return record, nil
}

// Upsert inserts or completely overwrites the singleton row.
func (rs *RowStore) Upsert(ctx context.Context, r *settings.Record) error {
	const stmt = `
		INSERT INTO tv_settings (
			singleton,
			interval_seconds,
			photos,
			youtube_videos,
			bgm_url,
			updated_at
		) VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			interval_seconds = excluded.interval_seconds,
			photos           = excluded.photos,
			youtube_videos   = excluded.youtube_videos,
			bgm_url          = excluded.bgm_url,
			updated_at       = excluded.updated_at
	`

	photosJSON, err := json.Marshal(r.Photos)
	if err != nil {
		return fmt.Errorf("encode photos column: %w", err)
	}
	videosJSON, err := json.Marshal(r.YoutubeVideos)
	if err != nil {
		return fmt.Errorf("encode youtube_videos column: %w", err)
	}

	_, err = rs.db.ExecContext(
		ctx,
		stmt,
		r.IntervalSeconds,
		string(photosJSON),
		string(videosJSON),
		r.BGMURL,
		r.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func (rs *RowStore) Close() error {
	return rs.db.Close()
}
