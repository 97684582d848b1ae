package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/pkg/models"
)

// ItemRepository reads the question catalog. The engine treats the catalog
// as read-only; Create exists for seeding and tests.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetByID returns an item by ID, or apperr.ErrNotFound.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := r.db.GetContext(ctx, &item, r.db.Rebind(`SELECT * FROM items WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("get item", err)
	}
	return &item, nil
}

// Create inserts a catalog item.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	insert := `
		INSERT INTO items (subject, statement, answer, srs_enabled)
		VALUES (?, ?, ?, ?)
	`
	args := []interface{}{item.Subject, item.Statement, item.Answer, item.SRSEnabled}
	if r.db.DriverName() == "postgres" {
		query := r.db.Rebind(insert + " RETURNING id")
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&item.ID); err != nil {
			return apperr.Unavailable("create item", err)
		}
		return nil
	}
	result, err := r.db.ExecContext(ctx, r.db.Rebind(insert), args...)
	if err != nil {
		return apperr.Unavailable("create item", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return apperr.Unavailable("create item", err)
	}
	item.ID = id
	return nil
}
