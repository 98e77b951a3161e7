package services

import (
	"context"
	"io"

	"digital-menu/models"

	"go.uber.org/zap"
)

// Uploader is satisfied by *ImageUploader.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// AdminService wraps catalog writes. Every successful write invalidates the
// public catalog so readers re-read from the database instead of a patched copy.
type AdminService struct {
	Catalog *CatalogService
	Images  Uploader
	Log     *zap.Logger

	// LookupItem defaults to GetMenuItem.
	LookupItem func(ctx context.Context, id string) (*models.MenuItem, error)
}

func (s *AdminService) lookupItem(ctx context.Context, id string) (*models.MenuItem, error) {
	if s.LookupItem != nil {
		return s.LookupItem(ctx, id)
	}
	return GetMenuItem(ctx, id)
}

func (s *AdminService) refresh(ctx context.Context) {
	s.Catalog.Invalidate(ctx)
}

func (s *AdminService) Categories(ctx context.Context) ([]models.Category, error) {
	return ListCategories(ctx)
}

func (s *AdminService) Items(ctx context.Context) ([]models.MenuItem, error) {
	return ListAllMenu(ctx)
}

func (s *AdminService) CreateCategory(ctx context.Context, in models.CategoryInput) (string, error) {
	id, err := AddCategory(ctx, in)
	if err != nil {
		return "", err
	}
	s.refresh(ctx)
	s.Log.Info("category created", zap.String("category_id", id))
	return id, nil
}

func (s *AdminService) UpdateCategory(ctx context.Context, id string, in models.CategoryInput) error {
	if err := UpdateCategory(ctx, id, in); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *AdminService) DeleteCategory(ctx context.Context, id string) error {
	if err := DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	s.Log.Info("category deleted", zap.String("category_id", id))
	return nil
}

// prepareItem uploads the image first. An upload failure aborts the save so the
// item never points at a missing object.
func (s *AdminService) prepareItem(ctx context.Context, in models.MenuItemInput, image io.Reader) (models.MenuItemInput, error) {
	in, err := NormalizeMenuItemInput(in)
	if err != nil {
		return in, err
	}
	if image == nil {
		return in, nil
	}
	url, err := s.Images.Upload(ctx, image)
	if err != nil {
		return in, err
	}
	in.ImageURL = &url
	return in, nil
}

func (s *AdminService) CreateItem(ctx context.Context, in models.MenuItemInput, image io.Reader) (string, error) {
	in, err := s.prepareItem(ctx, in, image)
	if err != nil {
		return "", err
	}
	id, err := AddMenuItem(ctx, in)
	if err != nil {
		return "", err
	}
	s.refresh(ctx)
	s.Log.Info("menu item created", zap.String("item_id", id), zap.String("name", in.Name))
	return id, nil
}

// UpdateItem checks the item exists before uploading a new image, so a stale
// id never leaves an orphan object in the bucket.
func (s *AdminService) UpdateItem(ctx context.Context, id string, in models.MenuItemInput, image io.Reader) error {
	in, err := NormalizeMenuItemInput(in)
	if err != nil {
		return err
	}
	if image != nil {
		if _, err := s.lookupItem(ctx, id); err != nil {
			return err
		}
	}
	in, err = s.prepareItem(ctx, in, image)
	if err != nil {
		return err
	}
	if err := UpdateMenuItem(ctx, id, in); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *AdminService) ToggleItem(ctx context.Context, id string) (bool, error) {
	available, err := ToggleMenuItemAvailable(ctx, id)
	if err != nil {
		return false, err
	}
	s.refresh(ctx)
	s.Log.Info("menu item availability changed", zap.String("item_id", id), zap.Bool("available", available))
	return available, nil
}

func (s *AdminService) DeleteItem(ctx context.Context, id string) error {
	if err := DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	s.Log.Info("menu item deleted", zap.String("item_id", id))
	return nil
}
