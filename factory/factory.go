package factory

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/formkit"
	"github.com/lychee-technology/formkit/internal"
)

// NewFormServiceWithConfig creates the Postgres-backed FormService. This is
// the primary way for external projects to wire up form persistence.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/formkit"
//	    "github.com/lychee-technology/formkit/factory"
//	)
//
//	config := formkit.DefaultConfig()
//	service, err := factory.NewFormServiceWithConfig(config, pool)
//	if err != nil {
//	    // handle error
//	}
func NewFormServiceWithConfig(config *formkit.Config, pool *pgxpool.Pool) (formkit.FormService, error) {
	if config == nil {
		config = formkit.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	rows, err := pool.Query(context.Background(), `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE';`)
	if err != nil {
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	names := config.Database.TableNames
	if !slices.Contains(tables, names.Forms) || !slices.Contains(tables, names.Submissions) {
		return nil, fmt.Errorf("required tables are missing in the database: need %s and %s", names.Forms, names.Submissions)
	}

	return internal.NewPostgresFormRepository(pool, names), nil
}

// NewFormBuilder creates a blank builder session backed by the given service.
func NewFormBuilder(config *formkit.Config, service formkit.FormService) formkit.FormBuilder {
	return internal.NewFormBuilder(config, service, internal.NewFieldTransformer())
}

// NewRelationshipDesigner creates a relationship designer for the form
// identified by ownSlug, seeded with the session's existing relationships.
func NewRelationshipDesigner(config *formkit.Config, service formkit.FormService, ownSlug string, existing []formkit.FormRelationship) formkit.RelationshipDesigner {
	return internal.NewRelationshipDesigner(config, service, ownSlug, existing)
}

// NewSubmissionValidator creates the canonical submission validator.
func NewSubmissionValidator(config *formkit.Config) formkit.SubmissionValidator {
	return internal.NewSubmissionValidator(config)
}

// NewFieldTransformer creates the canonical field transformer.
func NewFieldTransformer() formkit.FieldTransformer {
	return internal.NewFieldTransformer()
}
