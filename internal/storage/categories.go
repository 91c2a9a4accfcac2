package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"buchhaltung/internal/audit"
	"buchhaltung/internal/core"
)

func (r *Repository) CreateCategory(ctx context.Context, c *core.Category) error {
	now := time.Now().UTC()
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, type, description, sort_order, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			c.Name, string(c.Type), c.Description, c.SortOrder, fmtTime(now))
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("category id: %w", err)
		}
		c.ID = id
		c.CreatedAt = now
		return r.appendAudit(ctx, tx, audit.ActionCreate, "category", c.ID, nil, c)
	})
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		SELECT id, name, type, description, sort_order, created_at
		FROM categories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, core.NotFoundf("category %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories, optionally filtered by type.
func (r *Repository) ListCategories(ctx context.Context, typeFilter core.TransactionType) ([]core.Category, error) {
	query := `SELECT id, name, type, description, sort_order, created_at FROM categories`
	var args []any
	if typeFilter == core.TypeIncome || typeFilter == core.TypeExpense {
		query += ` WHERE type = ?`
		args = append(args, string(typeFilter))
	}
	query += ` ORDER BY sort_order, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *Repository) UpdateCategory(ctx context.Context, c *core.Category) error {
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		old, err := scanCategory(tx.QueryRowContext(ctx, `
			SELECT id, name, type, description, sort_order, created_at
			FROM categories WHERE id = ?`, c.ID))
		if err == sql.ErrNoRows {
			return core.NotFoundf("category %d not found", c.ID)
		}
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE categories SET name = ?, type = ?, description = ?, sort_order = ? WHERE id = ?`,
			c.Name, string(c.Type), c.Description, c.SortOrder, c.ID)
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		c.CreatedAt = old.CreatedAt
		return r.appendAudit(ctx, tx, audit.ActionUpdate, "category", c.ID, old, c)
	})
}

// DeleteCategory removes a category and nulls the category reference on all
// transactions that pointed at it. Deletion is never blocked by references.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		old, err := scanCategory(tx.QueryRowContext(ctx, `
			SELECT id, name, type, description, sort_order, created_at
			FROM categories WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return core.NotFoundf("category %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE transactions SET category_id = NULL WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("unlink category from transactions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return r.appendAudit(ctx, tx, audit.ActionDelete, "category", id, old, nil)
	})
}

func scanCategory(row rowScanner) (*core.Category, error) {
	var c core.Category
	var catType, createdAt string
	if err := row.Scan(&c.ID, &c.Name, &catType, &c.Description, &c.SortOrder, &createdAt); err != nil {
		return nil, err
	}
	c.Type = core.TransactionType(catType)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}
