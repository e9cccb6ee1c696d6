package server

import (
	"context"
	"database/sql"
	"fmt"
)

// ShareStore persists ShareRecords. It is modelled as an interface so
// handler tests can swap in an in-memory fake for the Postgres-backed
// implementation used in production.
type ShareStore interface {
	// Create persists a new record. The record must reference at least
	// one stored file and must only be written after every blob is
	// durably stored.
	Create(ctx context.Context, rec *ShareRecord) error

	// Get returns the record for id, or errShareNotFound.
	Get(ctx context.Context, id string) (*ShareRecord, error)

	// IncrementDownloads bumps the download counter by one. The update
	// is atomic on the backing store so concurrent deliveries never
	// lose a count.
	IncrementDownloads(ctx context.Context, id string) error
}

// sqlShareStore is the Postgres implementation of ShareStore. Shares and
// their files live in two tables; share_files keeps upload order in its
// position column and carries the original filename alongside the stored
// name, so nothing ever has to be parsed back out of a blob key.
type sqlShareStore struct {
	db *sql.DB
}

// NewSQLShareStore wraps an open database handle in a ShareStore.
func NewSQLShareStore(db *sql.DB) ShareStore {
	return &sqlShareStore{db: db}
}

func (s *sqlShareStore) Create(ctx context.Context, rec *ShareRecord) error {
	if len(rec.Files) == 0 {
		return errNoFiles
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO shares (id, password, downloads) VALUES ($1, $2, 0)`,
		rec.ID, rec.Password,
	)
	if err != nil {
		return fmt.Errorf("insert share: %w", err)
	}

	for i, f := range rec.Files {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO share_files (share_id, position, stored_name, orig_name)
			 VALUES ($1, $2, $3, $4)`,
			rec.ID, i, f.StoredName, f.OrigName,
		)
		if err != nil {
			return fmt.Errorf("insert share file: %w", err)
		}
	}

	return tx.Commit()
}

func (s *sqlShareStore) Get(ctx context.Context, id string) (*ShareRecord, error) {
	rec := &ShareRecord{ID: id}

	err := s.db.QueryRowContext(ctx,
		`SELECT password, downloads, created_at FROM shares WHERE id = $1`,
		id,
	).Scan(&rec.Password, &rec.Downloads, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errShareNotFound
		}
		return nil, fmt.Errorf("select share: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT stored_name, orig_name FROM share_files
		 WHERE share_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("select share files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var f StoredFile
		if err := rows.Scan(&f.StoredName, &f.OrigName); err != nil {
			return nil, fmt.Errorf("scan share file: %w", err)
		}
		rec.Files = append(rec.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share files: %w", err)
	}

	return rec, nil
}

func (s *sqlShareStore) IncrementDownloads(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE shares SET downloads = downloads + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errShareNotFound
	}
	return nil
}
