package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type TitleService interface {
	List(ctx context.Context, query dto.TitleQuery) (*dto.Paginated[dto.TitleResponse], error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	now          func() time.Time
}

func NewTitleService(
	titleRepo repository.TitleRepository,
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		now:          time.Now,
	}
}

func (s *titleService) List(ctx context.Context, query dto.TitleQuery) (*dto.Paginated[dto.TitleResponse], error) {
	page := repository.Page{Page: query.Page, PageSize: query.PageSize}.Normalize()
	filter := repository.TitleFilter{
		Category: query.Category,
		Genre:    query.Genre,
		Name:     query.Name,
		Year:     query.Year,
	}
	list, total, err := s.titleRepo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	data := make([]dto.TitleResponse, 0, len(list))
	for i := range list {
		data = append(data, dto.FromModelToTitleResponse(&list[i]))
	}
	return dto.NewPaginated(data, total, page.Page, page.PageSize), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "title")
	}
	resp := dto.FromModelToTitleResponse(title)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	title := models.Title{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if err := models.ValidateYear(title.Year, s.now()); err != nil {
		return nil, storageError(err, "title")
	}

	if req.Category != "" {
		category, err := s.resolveCategory(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}
	genres, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}
	title.Genres = genres

	if err := s.titleRepo.Create(ctx, &title); err != nil {
		return nil, storageError(err, "title")
	}
	return s.Get(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "title")
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		if err := models.ValidateYear(*req.Year, s.now()); err != nil {
			return nil, storageError(err, "title")
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = req.Description
	}
	switch {
	case req.Category == nil:
	case *req.Category == "":
		title.CategoryID = nil
		title.Category = nil
	default:
		category, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	var genres []models.Genre
	if req.Genre != nil {
		if genres, err = s.resolveGenres(ctx, req.Genre); err != nil {
			return nil, err
		}
	}

	if err := s.titleRepo.Update(ctx, title, genres); err != nil {
		return nil, storageError(err, "title")
	}
	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	title, err := s.titleRepo.FindByID(ctx, id)
	if err != nil {
		return storageError(err, "title")
	}
	return storageError(s.titleRepo.Delete(ctx, title), "title")
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, validationf("unknown category %q", slug)
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// resolveGenres maps slugs to stored genres; any unknown slug fails the
// whole request. The result is non-nil so an empty list clears genres.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	unique := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		unique[slug] = struct{}{}
	}
	wanted := make([]string, 0, len(unique))
	for slug := range unique {
		wanted = append(wanted, slug)
	}
	sort.Strings(wanted)

	genres, err := s.genreRepo.FindBySlugs(ctx, wanted)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(wanted) {
		found := make(map[string]struct{}, len(genres))
		for _, g := range genres {
			found[g.Slug] = struct{}{}
		}
		var missing []string
		for _, slug := range wanted {
			if _, ok := found[slug]; !ok {
				missing = append(missing, slug)
			}
		}
		return nil, validationf("unknown genre(s): %s", strings.Join(missing, ", "))
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	return genres, nil
}
