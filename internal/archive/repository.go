package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/common"
	"github.com/parchment-labs/docproc/internal/document"
)

// ListFilter narrows List results. Zero values mean no constraint.
type ListFilter struct {
	Method        constants.ProcessingMethod
	SourceType    constants.SourceType
	MinConfidence float64
	From          *time.Time
	To            *time.Time
	Limit         int
}

// Repository persists normalized records. Safe for concurrent use; the
// underlying *sql.DB pools connections.
type Repository struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// NewRepository connects to the archive and bootstraps the schema.
func NewRepository(ctx context.Context, cfg Config, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, d, err := open(ctx, cfg, logger)
	if err != nil {
		return nil, common.NewAppError("ARCHIVE_OPEN", "failed to open archive", err)
	}
	return &Repository{db: db, dialect: d, logger: logger}, nil
}

// Close closes the archive database gracefully.
func (r *Repository) Close() {
	if err := r.db.Close(); err != nil {
		r.logger.Error("archive.db.close_failed", "error", err)
		return
	}
	r.logger.Info("archive.db.closed")
}

// Save upserts a record by document ID.
func (r *Repository) Save(ctx context.Context, rec document.NormalizedRecord) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return common.NewAppError("ARCHIVE_ENCODE", "failed to encode metadata", err)
	}
	fields, err := json.Marshal(rec.ExtractedFields)
	if err != nil {
		return common.NewAppError("ARCHIVE_ENCODE", "failed to encode extracted fields", err)
	}

	query := r.dialect.rebind(`INSERT INTO records
		(document_id, title, content, metadata, extracted_fields, source_type, processed_at, confidence_score, processing_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (document_id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			metadata = excluded.metadata,
			extracted_fields = excluded.extracted_fields,
			source_type = excluded.source_type,
			processed_at = excluded.processed_at,
			confidence_score = excluded.confidence_score,
			processing_method = excluded.processing_method`)

	_, err = r.db.ExecContext(ctx, query,
		rec.DocumentID,
		rec.Title,
		rec.Content,
		string(metadata),
		string(fields),
		string(rec.SourceType),
		rec.ProcessedAt.UTC().Format(time.RFC3339Nano),
		rec.ConfidenceScore,
		string(rec.Method),
	)
	if err != nil {
		r.logger.Error("archive.save.failed", "doc_id", rec.DocumentID, "error", err)
		return common.NewAppError("ARCHIVE_SAVE", "failed to save record", err)
	}
	r.logger.Info("archive.save.ok", "doc_id", rec.DocumentID)
	return nil
}

// Get fetches one record by document ID.
func (r *Repository) Get(ctx context.Context, documentID string) (document.NormalizedRecord, error) {
	query := r.dialect.rebind(`SELECT document_id, title, content, metadata, extracted_fields,
		source_type, processed_at, confidence_score, processing_method
		FROM records WHERE document_id = ?`)

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return document.NormalizedRecord{}, common.NewAppError("ARCHIVE_GET", "record not found", common.ErrNotFound)
	}
	if err != nil {
		return document.NormalizedRecord{}, common.NewAppError("ARCHIVE_GET", "failed to load record", err)
	}
	return rec, nil
}

// List returns records matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]document.NormalizedRecord, error) {
	query := `SELECT document_id, title, content, metadata, extracted_fields,
		source_type, processed_at, confidence_score, processing_method
		FROM records WHERE 1=1`
	var args []any

	if filter.Method != "" {
		query += " AND processing_method = ?"
		args = append(args, string(filter.Method))
	}
	if filter.SourceType != "" {
		query += " AND source_type = ?"
		args = append(args, string(filter.SourceType))
	}
	if filter.MinConfidence > 0 {
		query += " AND confidence_score >= ?"
		args = append(args, filter.MinConfidence)
	}
	if filter.From != nil {
		query += " AND processed_at >= ?"
		args = append(args, filter.From.UTC().Format(time.RFC3339Nano))
	}
	if filter.To != nil {
		query += " AND processed_at <= ?"
		args = append(args, filter.To.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY processed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		r.logger.Error("archive.list.failed", "error", err)
		return nil, common.NewAppError("ARCHIVE_LIST", "failed to list records", err)
	}
	defer rows.Close()

	var out []document.NormalizedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, common.NewAppError("ARCHIVE_LIST", "failed to scan record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("ARCHIVE_LIST", "failed to iterate records", err)
	}
	return out, nil
}

// Count returns the number of archived records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, common.NewAppError("ARCHIVE_COUNT", "failed to count records", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (document.NormalizedRecord, error) {
	var (
		rec                       document.NormalizedRecord
		metadata, fields          string
		sourceType, method, stamp string
	)
	err := row.Scan(&rec.DocumentID, &rec.Title, &rec.Content, &metadata, &fields,
		&sourceType, &stamp, &rec.ConfidenceScore, &method)
	if err != nil {
		return document.NormalizedRecord{}, err
	}
	if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
		return document.NormalizedRecord{}, err
	}
	if err := json.Unmarshal([]byte(fields), &rec.ExtractedFields); err != nil {
		return document.NormalizedRecord{}, err
	}
	if rec.ProcessedAt, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
		return document.NormalizedRecord{}, err
	}
	rec.SourceType = constants.SourceType(sourceType)
	rec.Method = constants.ProcessingMethod(method)
	return rec, nil
}
