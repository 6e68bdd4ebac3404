package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

// CategoryRepository wraps category persistence.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository builds a repository tied to the provided GORM DB.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	if tx == nil {
		return r
	}
	return &CategoryRepository{db: tx}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// SlugExists reports whether a category already uses the slug.
func (r *CategoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

// Update writes the editable columns; the slug is fixed at creation.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", category.ID).
		Select("name", "description", "icon", "updated_at").
		Updates(category).Error
}

type categoryRow struct {
	models.Category
	ProductsCount int64 `gorm:"column:products_count"`
}

// List returns categories by name, each with its product count.
func (r *CategoryRepository) List(ctx context.Context, search string) ([]categoryRow, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("categories.*, (SELECT COUNT(*) FROM products WHERE products.category_id = categories.id) AS products_count")
	if search = strings.TrimSpace(search); search != "" {
		qb = qb.Where("LOWER(categories.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var rows []categoryRow
	err := qb.Order("categories.name ASC").Order("categories.id ASC").Scan(&rows).Error
	return rows, err
}

// CountProducts counts products filed under the category.
func (r *CategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

// Delete detaches the category's products and removes it. Run it inside a
// transaction.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) (unassigned int64, deleted bool, err error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Product{}).
		Where("category_id = ?", id).
		Updates(map[string]any{"category_id": nil, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, false, res.Error
	}
	unassigned = res.RowsAffected

	res = db.Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return 0, false, res.Error
	}
	return unassigned, res.RowsAffected > 0, nil
}

// CategoryService exposes category administration and the public list.
type CategoryService interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	ListCategories(ctx context.Context, search string) ([]CategoryDTO, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) (*DeleteCategoryResult, error)
}

type categoryService struct {
	repo     *CategoryRepository
	dbClient *db.Client
}

// NewCategoryService constructs a category service instance.
func NewCategoryService(repo *CategoryRepository, dbClient *db.Client) (CategoryService, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &categoryService{repo: repo, dbClient: dbClient}, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	base := Slugify(name)
	if base == "" {
		base = "category"
	}
	slug, err := allocateSlug(base, func(candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Icon:        strings.TrimSpace(input.Icon),
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	dto := mapCategory(*category, 0)
	return &dto, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	category, err := s.load(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.Icon != nil {
		category.Icon = strings.TrimSpace(*input.Icon)
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	count, err := s.repo.CountProducts(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
	}
	dto := mapCategory(*category, count)
	return &dto, nil
}

func (s *categoryService) ListCategories(ctx context.Context, search string) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapCategory(row.Category, row.ProductsCount))
	}
	return out, nil
}

// DeleteCategory removes the category. Its products stay in the catalog
// without a category.
func (s *categoryService) DeleteCategory(ctx context.Context, categoryID uuid.UUID) (*DeleteCategoryResult, error) {
	result := &DeleteCategoryResult{ID: categoryID}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		unassigned, deleted, err := s.repo.WithTx(tx).Delete(ctx, categoryID)
		if err != nil {
			return err
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		result.UnassignedProducts = unassigned
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return result, nil
}

func (s *categoryService) load(ctx context.Context, categoryID uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}
