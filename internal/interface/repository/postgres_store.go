package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore implements DocumentStore on a single table through GORM.
// Field maps are kept as typed-value JSON so they read back with their original types.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore creates a new GORM document store.
// The db must be opened with TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
func NewPostgresStore(db *gorm.DB) repository.DocumentStore {
	return &PostgresStore{
		db: db,
	}
}

// Documents GORM model for database mapping
type Documents struct {
	Collection string `gorm:"column:collection;primaryKey"`
	DocID      string `gorm:"column:doc_id;primaryKey"`
	Fields     string `gorm:"column:fields;type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName overrides the default table name
func (Documents) TableName() string {
	return "documents"
}

// Migrate creates the documents table if needed
func (r *PostgresStore) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Documents{})
}

// Create inserts a new row, ErrDocumentExists on duplicate key
func (r *PostgresStore) Create(ctx context.Context, _ string, collection, id string, fields map[string]any) error {
	payload, err := marshalTyped(fields)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Create(&Documents{Collection: collection, DocID: id, Fields: payload})
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s/%s", repository.ErrDocumentExists, collection, id)
	}
	if result.Error != nil {
		return &entity.DependencyError{Op: "postgres.create", Err: result.Error}
	}
	return nil
}

// Update merges fields into the stored document under a row lock.
// Encoding failures are returned as they are; only database errors are dependency errors.
func (r *PostgresStore) Update(ctx context.Context, _ string, collection, id string, fields map[string]any) error {
	var codecErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Documents
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND doc_id = ?", collection, id).
			First(&row)
		if result.Error != nil {
			return result.Error
		}

		current, err := unmarshalTyped(row.Fields)
		if err != nil {
			codecErr = err
			return err
		}
		for k, v := range fields {
			current[k] = v
		}

		payload, err := marshalTyped(current)
		if err != nil {
			codecErr = err
			return err
		}
		return tx.Model(&row).
			Where("collection = ? AND doc_id = ?", collection, id).
			Update("fields", payload).Error
	})

	switch {
	case err == nil:
		return nil
	case codecErr != nil:
		return fmt.Errorf("document %s/%s: %w", collection, id, codecErr)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s/%s", repository.ErrDocumentNotFound, collection, id)
	default:
		return &entity.DependencyError{Op: "postgres.update", Err: err}
	}
}

// Get loads a document, nil when the row does not exist
func (r *PostgresStore) Get(ctx context.Context, _ string, collection, id string) (map[string]any, error) {
	var row Documents
	result := r.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, &entity.DependencyError{Op: "postgres.get", Err: result.Error}
	}

	fields, err := unmarshalTyped(row.Fields)
	if err != nil {
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, err)
	}
	return fields, nil
}

func marshalTyped(fields map[string]any) (string, error) {
	encoded, err := EncodeFields(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	return string(data), nil
}

func unmarshalTyped(data string) (map[string]any, error) {
	var encoded map[string]Value
	if err := json.Unmarshal([]byte(data), &encoded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return DecodeFields(encoded)
}
