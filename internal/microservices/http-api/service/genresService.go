package service

import (
	"context"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type GenreService interface {
	List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.GenreResponse], error)
	Create(ctx context.Context, req dto.GenreRequest) (*dto.GenreResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(repo repository.GenreRepository) GenreService {
	return &genreService{repo: repo}
}

func (s *genreService) List(ctx context.Context, search string, page repository.Page) (*dto.Paginated[dto.GenreResponse], error) {
	page = page.Normalize()
	list, total, err := s.repo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	data := make([]dto.GenreResponse, 0, len(list))
	for i := range list {
		data = append(data, dto.FromModelToGenreResponse(&list[i]))
	}
	return dto.NewPaginated(data, total, page.Page, page.PageSize), nil
}

func (s *genreService) Create(ctx context.Context, req dto.GenreRequest) (*dto.GenreResponse, error) {
	genre := models.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, &genre); err != nil {
		return nil, storageError(err, "genre with this slug")
	}
	resp := dto.FromModelToGenreResponse(&genre)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	genre, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return storageError(err, "genre")
	}
	return storageError(s.repo.Delete(ctx, genre), "genre")
}
