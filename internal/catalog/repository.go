package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	ReplaceFolders(ctx context.Context, names []string) error
	ListFolders(ctx context.Context) ([]string, error)

	ReplaceVideos(ctx context.Context, folder string, videos []Video) error
	ListVideos(ctx context.Context, folder string) ([]Video, error)
	SetHasScenes(ctx context.Context, folder, filename string, has bool) error

	PutScenePayload(ctx context.Context, folder, filename, payload string) error
	GetScenePayload(ctx context.Context, folder, filename string) (string, bool, error)
	DeleteScenePayload(ctx context.Context, folder, filename string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (r *SQLiteRepository) ReplaceFolders(ctx context.Context, names []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM folders"); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO folders (name, fetched_at) VALUES (?, ?)", name, now()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListFolders(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM folders ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *SQLiteRepository) ReplaceVideos(ctx context.Context, folder string, videos []Video) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM videos WHERE folder = ?", folder); err != nil {
		return err
	}
	for _, v := range videos {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO videos (folder, filename, has_scenes, fetched_at)
			VALUES (?, ?, ?, ?)
		`, folder, v.Filename, boolToInt(v.HasScenesJSON), now()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListVideos(ctx context.Context, folder string) ([]Video, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT folder, filename, has_scenes, fetched_at
		FROM videos WHERE folder = ? ORDER BY filename
	`, folder)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		var has int
		var fetchedAt string
		if err := rows.Scan(&v.Folder, &v.Filename, &has, &fetchedAt); err != nil {
			return nil, err
		}
		v.HasScenesJSON = has == 1
		v.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (r *SQLiteRepository) SetHasScenes(ctx context.Context, folder, filename string, has bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE videos SET has_scenes = ? WHERE folder = ? AND filename = ?",
		boolToInt(has), folder, filename)
	return err
}

func (r *SQLiteRepository) PutScenePayload(ctx context.Context, folder, filename, payload string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scene_payloads (folder, filename, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(folder, filename) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, folder, filename, payload, now())
	return err
}

func (r *SQLiteRepository) GetScenePayload(ctx context.Context, folder, filename string) (string, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		"SELECT payload FROM scene_payloads WHERE folder = ? AND filename = ?",
		folder, filename).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

func (r *SQLiteRepository) DeleteScenePayload(ctx context.Context, folder, filename string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM scene_payloads WHERE folder = ? AND filename = ?", folder, filename)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
