// Package export ships form submissions to S3 as parquet files, using DuckDB
// as the export engine: submissions are read straight out of Postgres with
// postgres_scan and written with COPY, so no rows pass through this process.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/lychee-technology/formkit"
)

// SubmissionExporter owns one DuckDB connection configured for S3 access.
type SubmissionExporter struct {
	DB     *sql.DB
	Config formkit.ExportConfig
	Logger *zap.Logger

	submissionsTable string
}

// NewSubmissionExporter opens a DuckDB connection and configures pragmas,
// extensions and S3 credentials. Pragma and extension failures are logged and
// tolerated; exports fail later with a clearer error if one actually mattered.
func NewSubmissionExporter(ctx context.Context, cfg formkit.ExportConfig, tables formkit.TableNames, s3AccessKey, s3Secret string, logger *zap.Logger) (*SubmissionExporter, error) {
	db, err := sql.Open("duckdb", cfg.DuckDBPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pragmas := []string{
		fmt.Sprintf("PRAGMA memory_limit='%dMB';", cfg.DuckDBMemoryMB),
		fmt.Sprintf("PRAGMA threads=%d;", cfg.DuckDBThreads),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx2, p); err != nil {
			logger.Sugar().Warnw("duckdb pragma failed", "pragma", p, "err", err)
		}
	}

	exts := []string{"httpfs", "parquet", "postgres_scanner"}
	for _, e := range exts {
		if _, err := db.ExecContext(ctx2, "INSTALL "+e+";"); err != nil {
			logger.Sugar().Warnw("duckdb install extension failed", "ext", e, "err", err)
		} else {
			if _, err := db.ExecContext(ctx2, "LOAD "+e+";"); err != nil {
				logger.Sugar().Warnw("duckdb load extension failed", "ext", e, "err", err)
			}
		}
	}

	if s3AccessKey != "" {
		if _, err := db.ExecContext(ctx2, fmt.Sprintf("SET s3_access_key_id='%s';", s3AccessKey)); err != nil {
			logger.Sugar().Warnw("duckdb set s3_access_key_id failed", "err", err)
		}
	}
	if s3Secret != "" {
		if _, err := db.ExecContext(ctx2, fmt.Sprintf("SET s3_secret_access_key='%s';", s3Secret)); err != nil {
			logger.Sugar().Warnw("duckdb set s3_secret_access_key failed", "err", err)
		}
	}
	if cfg.S3Region != "" {
		if _, err := db.ExecContext(ctx2, fmt.Sprintf("SET s3_region='%s';", cfg.S3Region)); err != nil {
			logger.Sugar().Warnw("duckdb set s3_region failed", "err", err)
		}
	}
	if cfg.S3Endpoint != "" {
		ep := strings.TrimPrefix(cfg.S3Endpoint, "http://")
		if _, err := db.ExecContext(ctx2, fmt.Sprintf("SET s3_endpoint='%s';", ep)); err != nil {
			logger.Sugar().Warnw("duckdb set s3_endpoint failed", "err", err)
		}
		if _, err := db.ExecContext(ctx2, "SET s3_use_ssl=false;"); err != nil {
			logger.Sugar().Warnw("duckdb set s3_use_ssl failed", "err", err)
		}
		if _, err := db.ExecContext(ctx2, "SET s3_url_style='path';"); err != nil {
			logger.Sugar().Warnw("duckdb set s3_url_style failed", "err", err)
		}
	}

	submissionsTable := tables.Submissions
	if submissionsTable == "" {
		submissionsTable = "form_submissions"
	}

	return &SubmissionExporter{
		DB:               db,
		Config:           cfg,
		Logger:           logger,
		submissionsTable: submissionsTable,
	}, nil
}

// Close releases the DuckDB connection.
func (e *SubmissionExporter) Close() error {
	return e.DB.Close()
}

// ExportPath returns the S3 destination for one form's export at the given
// timestamp, like 's3://bucket/exports/contact-us/1700000000000.parquet'.
func ExportPath(cfg formkit.ExportConfig, formSlug string, exportedAt int64) string {
	prefix := strings.Trim(cfg.S3Prefix, "/")
	return fmt.Sprintf("s3://%s/%s/%s/%d.parquet", cfg.S3Bucket, prefix, formSlug, exportedAt)
}

// buildExportSQL produces the COPY statement for one form's submissions up to
// and including sinceTS. The jsonb data column is exported as-is; downstream
// consumers unpack it with DuckDB's own json functions.
func buildExportSQL(pgConnStr, submissionsTable, formSlug, s3Path string, sinceTS int64) string {
	pgEsc := strings.ReplaceAll(pgConnStr, "'", "''")
	slugEsc := strings.ReplaceAll(formSlug, "'", "''")
	s3Esc := strings.ReplaceAll(s3Path, "'", "''")

	return fmt.Sprintf(`COPY (
SELECT
  CAST(s.id AS VARCHAR) AS submission_id,
  s.form_slug AS form_slug,
  CAST(s.data AS VARCHAR) AS data,
  CAST(s.files AS VARCHAR) AS files,
  s.submitted_at AS submitted_at
FROM postgres_scan('%s', '%s', 'form_slug = ''%s'' AND submitted_at <= %d') s
ORDER BY s.submitted_at
) TO '%s' (FORMAT PARQUET, COMPRESSION 'ZSTD');
`, pgEsc, submissionsTable, slugEsc, sinceTS, s3Esc)
}

// ExportFormSubmissions copies one form's submissions from Postgres to a
// parquet file on S3 and returns the destination path.
func (e *SubmissionExporter) ExportFormSubmissions(ctx context.Context, pgConnStr, formSlug string, sinceTS int64) (string, error) {
	s3Path := ExportPath(e.Config, formSlug, sinceTS)
	query := buildExportSQL(pgConnStr, e.submissionsTable, formSlug, s3Path, sinceTS)

	e.Logger.Sugar().Infow("exporting form submissions", "form_slug", formSlug, "destination", s3Path)
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()
	if _, err := e.DB.ExecContext(ctx2, query); err != nil {
		return "", fmt.Errorf("duckdb copy exec: %w", err)
	}
	return s3Path, nil
}
