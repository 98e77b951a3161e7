package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"digital-menu/db"
	"digital-menu/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const menuItemColumns = `id::text, name, description, price::float8, veg, category_id::text, image_url, available, min_qty, created_at`

func scanMenuItem(row pgx.Row) (models.MenuItem, error) {
	var it models.MenuItem
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Veg, &it.CategoryID,
		&it.ImageURL, &it.Available, &it.MinQty, &it.CreatedAt)
	return it, err
}

func listMenuItems(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items`
	if onlyAvailable {
		query += ` WHERE available = true`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		it, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListAllMenu returns every item, available or not, for the admin table.
func ListAllMenu(ctx context.Context) ([]models.MenuItem, error) {
	return listMenuItems(ctx, false)
}

func GetMenuItem(ctx context.Context, idStr string) (*models.MenuItem, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, ErrNotFound
	}
	it, err := scanMenuItem(db.Pool.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// NormalizeMenuItemInput trims text fields, drops empty optionals and applies
// the min_qty default. It rejects inputs the table would refuse.
func NormalizeMenuItemInput(in models.MenuItemInput) (models.MenuItemInput, error) {
	in.Name = SingleLine(in.Name)
	if in.Name == "" {
		return in, invalidf("name is required")
	}
	if in.Price != nil {
		if math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) {
			return in, invalidf("price must be a finite number")
		}
		if *in.Price < 0 {
			return in, invalidf("price must be >= 0")
		}
		// a zero price is stored as "no price", like an empty form field
		if *in.Price == 0 {
			in.Price = nil
		}
	}
	if in.MinQty <= 0 {
		in.MinQty = 1
	}
	in.Description = trimOptional(in.Description)
	in.ImageURL = trimOptional(in.ImageURL)
	in.CategoryID = trimOptional(in.CategoryID)
	if in.CategoryID != nil {
		if _, err := uuid.Parse(*in.CategoryID); err != nil {
			return in, invalidf("category_id %q", *in.CategoryID)
		}
	}
	return in, nil
}

// SingleLine trims s and collapses every run of whitespace or control
// characters into one space. Names and room numbers go through it before they
// reach the one-line-per-item order text.
func SingleLine(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}), " ")
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func optionalUUID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}

func AddMenuItem(ctx context.Context, in models.MenuItemInput) (string, error) {
	in, err := NormalizeMenuItemInput(in)
	if err != nil {
		return "", err
	}
	var id string
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO menu_items (name, description, price, veg, category_id, image_url, available, min_qty)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text`,
		in.Name, in.Description, in.Price, in.Veg, optionalUUID(in.CategoryID), in.ImageURL, in.Available, in.MinQty,
	).Scan(&id)
	return id, err
}

func UpdateMenuItem(ctx context.Context, idStr string, in models.MenuItemInput) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return ErrNotFound
	}
	in, err = NormalizeMenuItemInput(in)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx, `
		UPDATE menu_items SET
			name = $1,
			description = $2,
			price = $3,
			veg = $4,
			category_id = $5,
			image_url = $6,
			available = $7,
			min_qty = $8
		WHERE id = $9`,
		in.Name, in.Description, in.Price, in.Veg, optionalUUID(in.CategoryID), in.ImageURL, in.Available, in.MinQty, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleMenuItemAvailable flips the available flag and returns the new value.
func ToggleMenuItemAvailable(ctx context.Context, idStr string) (bool, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return false, ErrNotFound
	}
	var available bool
	err = db.Pool.QueryRow(ctx, `
		UPDATE menu_items SET available = NOT available
		WHERE id = $1
		RETURNING available`, id,
	).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	return available, err
}

func DeleteMenuItem(ctx context.Context, idStr string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return ErrNotFound
	}
	tag, err := db.Pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
