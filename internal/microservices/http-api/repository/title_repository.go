package repository

import (
	"context"
	"fmt"
	"strings"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// TitleFilter narrows a title listing. Zero values are ignored.
type TitleFilter struct {
	Category string // category slug
	Genre    string // genre slug
	Name     string // case-insensitive substring
	Year     *int
}

type TitleRepository interface {
	Create(ctx context.Context, title *models.Title) error
	FindByID(ctx context.Context, id int64) (*models.Title, error)
	List(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error)
	Update(ctx context.Context, title *models.Title, genres []models.Genre) error
	Delete(ctx context.Context, title *models.Title) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

// Create inserts the title and links the already persisted genres in
// title.Genres without touching the genre rows.
func (r *titleRepository) Create(ctx context.Context, title *models.Title) error {
	if err := r.db.WithContext(ctx).Omit("Category", "Genres.*").Create(title).Error; err != nil {
		return fmt.Errorf("create title: %w", translateError(err))
	}
	return nil
}

func (r *titleRepository) FindByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.slug") }).
		First(&t, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64
	db := r.db.WithContext(ctx)

	q := db.Model(&models.Title{})
	if filter.Category != "" {
		q = q.Where("titles.category_id IN (?)",
			db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.Category))
	}
	if filter.Genre != "" {
		q = q.Where("titles.id IN (?)",
			db.Table("title_genres").
				Select("title_genres.title_id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", filter.Genre))
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		q = q.Where("LOWER(titles.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if filter.Year != nil {
		q = q.Where("titles.year = ?", *filter.Year)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}
	if err := q.
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.slug") }).
		Order("titles.id").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	return list, total, nil
}

// Update saves the scalar columns. A nil genres slice keeps the current
// links; a non-nil one replaces them.
func (r *titleRepository) Update(ctx context.Context, title *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// rating belongs to the review hooks and is never written here
		if err := tx.Model(title).
			Select("name", "year", "description", "category_id").
			Updates(title).Error; err != nil {
			return fmt.Errorf("update title: %w", translateError(err))
		}
		if genres == nil {
			return nil
		}
		if err := tx.Model(title).Association("Genres").Replace(genres); err != nil {
			return fmt.Errorf("replace genres: %w", err)
		}
		title.Genres = genres
		return nil
	})
}

// Delete removes the title; reviews, their comments and genre links cascade
// in the database.
func (r *titleRepository) Delete(ctx context.Context, title *models.Title) error {
	return translateError(r.db.WithContext(ctx).Delete(&models.Title{ID: title.ID}).Error)
}
