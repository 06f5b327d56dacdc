package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/formkit"
	"go.uber.org/zap"
)

// formPool is the subset of pgxpool.Pool the repository needs; pgxmock
// pools satisfy it too.
type formPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresFormRepository implements formkit.FormService over a pgx pool.
// The language config, field structure and relationships of a form are
// stored as jsonb documents and replaced wholesale on every save.
type PostgresFormRepository struct {
	pool    formPool
	tables  formkit.TableNames
	nowFunc func() time.Time
}

// NewPostgresFormRepository creates a repository targeting the configured
// form and submission tables.
func NewPostgresFormRepository(pool formPool, tables formkit.TableNames) *PostgresFormRepository {
	if tables.Forms == "" {
		tables.Forms = "forms"
	}
	if tables.Submissions == "" {
		tables.Submissions = "form_submissions"
	}
	return &PostgresFormRepository{
		pool:    pool,
		tables:  tables,
		nowFunc: time.Now,
	}
}

func (r *PostgresFormRepository) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	r.nowFunc = now
}

func (r *PostgresFormRepository) nowMillis() int64 {
	return r.nowFunc().UnixMilli()
}

const formColumns = "id, slug, title, description, language_config, fields_structure, relationships, submission_count, created_at, updated_at"

func (r *PostgresFormRepository) ListForms(ctx context.Context) ([]formkit.FormSchema, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at", formColumns, sanitizeIdentifier(r.tables.Forms))
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, formkit.NewRemoteError("failed to list forms", err)
	}
	defer rows.Close()

	forms := make([]formkit.FormSchema, 0)
	for rows.Next() {
		schema, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *schema)
	}
	if err := rows.Err(); err != nil {
		return nil, formkit.NewRemoteError("failed to iterate forms", err)
	}
	return forms, nil
}

func (r *PostgresFormRepository) GetForm(ctx context.Context, slug string) (*formkit.FormSchema, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE slug = $1", formColumns, sanitizeIdentifier(r.tables.Forms))
	row := r.pool.QueryRow(ctx, query, slug)
	schema, err := scanForm(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, formkit.NewFormNotFoundError(slug)
		}
		return nil, err
	}
	return schema, nil
}

func (r *PostgresFormRepository) CreateForm(ctx context.Context, payload *formkit.SavePayload) (*formkit.FormSchema, error) {
	if payload == nil {
		return nil, formkit.NewValidationError(formkit.ErrCodeValidationFailed, "payload cannot be nil")
	}

	schema := &formkit.FormSchema{
		ID:              uuid.New(),
		Slug:            Slugify(payload.Title),
		Title:           payload.Title,
		Description:     payload.Description,
		LanguageConfig:  payload.LanguageConfig,
		FieldsStructure: payload.FieldsStructure,
		Relationships:   payload.Relationships,
		CreatedAt:       r.nowMillis(),
		UpdatedAt:       r.nowMillis(),
	}

	langJSON, structJSON, relJSON, err := marshalFormDocs(payload)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)",
		sanitizeIdentifier(r.tables.Forms), formColumns)
	_, err = r.pool.Exec(ctx, query,
		schema.ID, schema.Slug, schema.Title, schema.Description,
		langJSON, structJSON, relJSON, schema.CreatedAt, schema.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, formkit.NewFormKitError(formkit.ErrorTypeConflict, formkit.ErrCodeSlugTaken,
				fmt.Sprintf("a form with slug '%s' already exists", schema.Slug))
		}
		return nil, formkit.NewRemoteError("failed to create form", err)
	}

	zap.S().Infow("form created", "slug", schema.Slug, "fields", len(schema.FieldsStructure))
	return schema, nil
}

func (r *PostgresFormRepository) UpdateForm(ctx context.Context, slug string, payload *formkit.SavePayload) (*formkit.FormSchema, error) {
	if payload == nil {
		return nil, formkit.NewValidationError(formkit.ErrCodeValidationFailed, "payload cannot be nil")
	}

	langJSON, structJSON, relJSON, err := marshalFormDocs(payload)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("UPDATE %s SET title = $1, description = $2, language_config = $3, fields_structure = $4, relationships = $5, updated_at = $6 WHERE slug = $7 RETURNING %s",
		sanitizeIdentifier(r.tables.Forms), formColumns)
	row := r.pool.QueryRow(ctx, query,
		payload.Title, payload.Description, langJSON, structJSON, relJSON, r.nowMillis(), slug)

	schema, err := scanForm(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, formkit.NewFormNotFoundError(slug)
		}
		return nil, err
	}

	zap.S().Infow("form updated", "slug", slug, "fields", len(schema.FieldsStructure))
	return schema, nil
}

func (r *PostgresFormRepository) DeleteForm(ctx context.Context, slug string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE slug = $1", sanitizeIdentifier(r.tables.Forms))
	tag, err := r.pool.Exec(ctx, query, slug)
	if err != nil {
		return formkit.NewRemoteError("failed to delete form", err)
	}
	if tag.RowsAffected() == 0 {
		return formkit.NewFormNotFoundError(slug)
	}
	zap.S().Infow("form deleted", "slug", slug)
	return nil
}

// SubmitForm stores a submission and bumps the owning form's submission
// counter in the same transaction.
func (r *PostgresFormRepository) SubmitForm(ctx context.Context, submission *formkit.Submission) (*formkit.Submission, error) {
	if submission == nil {
		return nil, formkit.NewValidationError(formkit.ErrCodeValidationFailed, "submission cannot be nil")
	}

	stored := *submission
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.SubmittedAt == 0 {
		stored.SubmittedAt = r.nowMillis()
	}

	dataJSON, err := json.Marshal(stored.Data)
	if err != nil {
		return nil, formkit.NewInternalError("failed to marshal submission data", err)
	}
	filesJSON, err := json.Marshal(stored.Files)
	if err != nil {
		return nil, formkit.NewInternalError("failed to marshal submission files", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, formkit.NewRemoteError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := fmt.Sprintf("INSERT INTO %s (id, form_slug, data, files, submitted_at) VALUES ($1, $2, $3, $4, $5)",
		sanitizeIdentifier(r.tables.Submissions))
	if _, err := tx.Exec(ctx, insertQuery, stored.ID, stored.FormSlug, dataJSON, filesJSON, stored.SubmittedAt); err != nil {
		return nil, formkit.NewRemoteError("failed to insert submission", err)
	}

	bumpQuery := fmt.Sprintf("UPDATE %s SET submission_count = submission_count + 1 WHERE slug = $1",
		sanitizeIdentifier(r.tables.Forms))
	tag, err := tx.Exec(ctx, bumpQuery, stored.FormSlug)
	if err != nil {
		return nil, formkit.NewRemoteError("failed to update submission count", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, formkit.NewFormNotFoundError(stored.FormSlug)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, formkit.NewRemoteError("failed to commit submission", err)
	}

	zap.S().Infow("submission stored", "form_slug", stored.FormSlug, "submission_id", stored.ID.String())
	return &stored, nil
}

func (r *PostgresFormRepository) GetFormSubmissions(ctx context.Context, slug string) ([]formkit.Submission, error) {
	query := fmt.Sprintf("SELECT id, form_slug, data, files, submitted_at FROM %s WHERE form_slug = $1 ORDER BY submitted_at",
		sanitizeIdentifier(r.tables.Submissions))
	rows, err := r.pool.Query(ctx, query, slug)
	if err != nil {
		return nil, formkit.NewRemoteError("failed to list submissions", err)
	}
	defer rows.Close()

	submissions := make([]formkit.Submission, 0)
	for rows.Next() {
		var (
			sub       formkit.Submission
			dataJSON  []byte
			filesJSON []byte
		)
		if err := rows.Scan(&sub.ID, &sub.FormSlug, &dataJSON, &filesJSON, &sub.SubmittedAt); err != nil {
			return nil, formkit.NewRemoteError("failed to scan submission", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &sub.Data); err != nil {
				return nil, formkit.NewInternalError("failed to decode submission data", err)
			}
		}
		if len(filesJSON) > 0 {
			if err := json.Unmarshal(filesJSON, &sub.Files); err != nil {
				return nil, formkit.NewInternalError("failed to decode submission files", err)
			}
		}
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, formkit.NewRemoteError("failed to iterate submissions", err)
	}
	return submissions, nil
}

func marshalFormDocs(payload *formkit.SavePayload) ([]byte, []byte, []byte, error) {
	langJSON, err := json.Marshal(payload.LanguageConfig)
	if err != nil {
		return nil, nil, nil, formkit.NewInternalError("failed to marshal language config", err)
	}
	fields := payload.FieldsStructure
	if fields == nil {
		fields = []formkit.StoredFieldStructure{}
	}
	structJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, nil, formkit.NewInternalError("failed to marshal field structure", err)
	}
	rels := payload.Relationships
	if rels == nil {
		rels = []formkit.FormRelationship{}
	}
	relJSON, err := json.Marshal(rels)
	if err != nil {
		return nil, nil, nil, formkit.NewInternalError("failed to marshal relationships", err)
	}
	return langJSON, structJSON, relJSON, nil
}

func scanForm(row pgx.Row) (*formkit.FormSchema, error) {
	var (
		schema     formkit.FormSchema
		langJSON   []byte
		structJSON []byte
		relJSON    []byte
	)
	err := row.Scan(&schema.ID, &schema.Slug, &schema.Title, &schema.Description,
		&langJSON, &structJSON, &relJSON, &schema.SubmissionCount, &schema.CreatedAt, &schema.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, formkit.NewRemoteError("failed to scan form", err)
	}

	if len(langJSON) > 0 {
		if err := json.Unmarshal(langJSON, &schema.LanguageConfig); err != nil {
			return nil, formkit.NewInternalError("failed to decode language config", err)
		}
	}
	if len(structJSON) > 0 {
		if err := json.Unmarshal(structJSON, &schema.FieldsStructure); err != nil {
			return nil, formkit.NewInternalError("failed to decode field structure", err)
		}
	}
	if len(relJSON) > 0 {
		if err := json.Unmarshal(relJSON, &schema.Relationships); err != nil {
			return nil, formkit.NewInternalError("failed to decode relationships", err)
		}
	}
	return &schema, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
