package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateFile inserts a file record and returns it with server-assigned fields
func (db *DB) CreateFile(ctx context.Context, f *StoredFile) (*StoredFile, error) {
	var out StoredFile
	err := db.pool.QueryRow(ctx,
		`INSERT INTO files (display_name, storage_reference, storage_uri, file_size, content_type, md5_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, display_name, storage_reference, storage_uri, file_size, content_type, md5_hash, uploaded_at`,
		f.DisplayName, f.StorageReference, f.StorageURI, f.FileSize, f.ContentType, f.MD5Hash,
	).Scan(&out.ID, &out.DisplayName, &out.StorageReference, &out.StorageURI,
		&out.FileSize, &out.ContentType, &out.MD5Hash, &out.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &out, nil
}

// GetFile retrieves a file by ID, or nil if it does not exist
func (db *DB) GetFile(ctx context.Context, id int64) (*StoredFile, error) {
	var f StoredFile
	err := db.pool.QueryRow(ctx,
		`SELECT id, display_name, storage_reference, storage_uri, file_size, content_type, md5_hash, uploaded_at
		 FROM files WHERE id = $1`,
		id,
	).Scan(&f.ID, &f.DisplayName, &f.StorageReference, &f.StorageURI,
		&f.FileSize, &f.ContentType, &f.MD5Hash, &f.UploadedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &f, nil
}

// GetFileByHash retrieves a file by its MD5 hash for upload deduplication
func (db *DB) GetFileByHash(ctx context.Context, md5Hash string) (*StoredFile, error) {
	var f StoredFile
	err := db.pool.QueryRow(ctx,
		`SELECT id, display_name, storage_reference, storage_uri, file_size, content_type, md5_hash, uploaded_at
		 FROM files WHERE md5_hash = $1`,
		md5Hash,
	).Scan(&f.ID, &f.DisplayName, &f.StorageReference, &f.StorageURI,
		&f.FileSize, &f.ContentType, &f.MD5Hash, &f.UploadedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file by hash: %w", err)
	}
	return &f, nil
}

// GetFilesByIDs retrieves the files matching the given IDs, newest first
func (db *DB) GetFilesByIDs(ctx context.Context, ids []int64) ([]StoredFile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, display_name, storage_reference, storage_uri, file_size, content_type, md5_hash, uploaded_at
		 FROM files WHERE id = ANY($1) ORDER BY uploaded_at DESC`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get files: %w", err)
	}
	defer rows.Close()

	var files []StoredFile
	for rows.Next() {
		var f StoredFile
		if err := rows.Scan(&f.ID, &f.DisplayName, &f.StorageReference, &f.StorageURI,
			&f.FileSize, &f.ContentType, &f.MD5Hash, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, nil
}

// ListFiles retrieves files, newest first
func (db *DB) ListFiles(ctx context.Context, limit int) ([]StoredFile, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, display_name, storage_reference, storage_uri, file_size, content_type, md5_hash, uploaded_at
		 FROM files ORDER BY uploaded_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []StoredFile
	for rows.Next() {
		var f StoredFile
		if err := rows.Scan(&f.ID, &f.DisplayName, &f.StorageReference, &f.StorageURI,
			&f.FileSize, &f.ContentType, &f.MD5Hash, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, nil
}

// DeleteFile removes a file record. Returns ErrNotFound if no row matched.
func (db *DB) DeleteFile(ctx context.Context, id int64) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
