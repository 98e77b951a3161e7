package services

import (
	"context"

	"digital-menu/db"
	"digital-menu/models"

	"github.com/google/uuid"
)

func normalizeCategoryInput(in models.CategoryInput) (models.CategoryInput, error) {
	in.Name = SingleLine(in.Name)
	if in.Name == "" {
		return in, invalidf("category name is required")
	}
	return in, nil
}

func AddCategory(ctx context.Context, in models.CategoryInput) (string, error) {
	in, err := normalizeCategoryInput(in)
	if err != nil {
		return "", err
	}
	var id string
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO categories (name, sort_order) VALUES ($1, $2)
		RETURNING id::text`,
		in.Name, in.SortOrder,
	).Scan(&id)
	return id, err
}

func UpdateCategory(ctx context.Context, idStr string, in models.CategoryInput) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return ErrNotFound
	}
	in, err = normalizeCategoryInput(in)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx, `UPDATE categories SET name = $1, sort_order = $2 WHERE id = $3`,
		in.Name, in.SortOrder, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category; its items keep existing with category_id NULL.
func DeleteCategory(ctx context.Context, idStr string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return ErrNotFound
	}
	tag, err := db.Pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
