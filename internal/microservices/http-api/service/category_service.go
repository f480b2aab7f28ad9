package service

import (
	"context"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type CategoryService interface {
	List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.CategoryResponse], error)
	Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.CategoryResponse], error) {
	page = page.Normalize()
	list, total, err := s.repo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	data := make([]dto.CategoryResponse, 0, len(list))
	for i := range list {
		data = append(data, dto.FromModelToCategoryResponse(&list[i]))
	}
	return dto.NewPaginated(data, total, page.Page, page.PageSize), nil
}

func (s *categoryService) Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	category := models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, &category); err != nil {
		return nil, storageError(err, "category with this slug")
	}
	resp := dto.FromModelToCategoryResponse(&category)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	category, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return storageError(err, "category")
	}
	return storageError(s.repo.Delete(ctx, category), "category")
}
