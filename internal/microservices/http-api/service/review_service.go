package service

import (
	"context"
	"errors"
	"net/http"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

// ReviewService manages reviews of a title. The title rating follows every
// write through the Review persistence hooks.
type ReviewService interface {
	List(ctx context.Context, titleID int64, page repository.Page) (*dto.Paginated[dto.ReviewResponse], error)
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, actor *models.User, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	Update(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error
}

var errAlreadyReviewed = validationf("you have already reviewed this title")

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo repository.TitleRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titleRepo.FindByID(ctx, titleID); err != nil {
		return storageError(err, "title")
	}
	return nil
}

func (s *reviewService) List(ctx context.Context, titleID int64, page repository.Page) (*dto.Paginated[dto.ReviewResponse], error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	list, total, err := s.reviewRepo.ListByTitle(ctx, titleID, page)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ReviewResponse, 0, len(list))
	for i := range list {
		data = append(data, dto.FromModelToReviewResponse(&list[i]))
	}
	return dto.NewPaginated(data, total, page.Page, page.PageSize), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.FindByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, storageError(err, "review")
	}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) Create(ctx context.Context, actor *models.User, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if err := permissionError(permission.AuthorOrModerationRequest(http.MethodPost, actor)); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if !models.ValidScore(req.Score) {
		return nil, validationf("score must be between %d and %d", models.MinScore, models.MaxScore)
	}

	exists, err := s.reviewRepo.ExistsForAuthor(ctx, titleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errAlreadyReviewed
	}

	review := models.Review{
		Text:     req.Text,
		Score:    req.Score,
		AuthorID: actor.ID,
		TitleID:  titleID,
	}
	if err := s.reviewRepo.Create(ctx, &review); err != nil {
		// lost a race against a concurrent create by the same author
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errAlreadyReviewed
		}
		return nil, storageError(err, "review")
	}
	review.Author = actor

	logging.Debug().Int64("title_id", titleID).Int64("review_id", review.ID).Msg("review created")
	resp := dto.FromModelToReviewResponse(&review)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.FindByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, storageError(err, "review")
	}
	if err := permissionError(permission.AuthorOrModerationObject(http.MethodPatch, actor, review.AuthorID)); err != nil {
		return nil, err
	}

	if req.Score != nil {
		if !models.ValidScore(*req.Score) {
			return nil, validationf("score must be between %d and %d", models.MinScore, models.MaxScore)
		}
		review.Score = *req.Score
	}
	if req.Text != nil {
		review.Text = *req.Text
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, storageError(err, "review")
	}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error {
	review, err := s.reviewRepo.FindByID(ctx, titleID, reviewID)
	if err != nil {
		return storageError(err, "review")
	}
	if err := permissionError(permission.AuthorOrModerationObject(http.MethodDelete, actor, review.AuthorID)); err != nil {
		return err
	}
	return storageError(s.reviewRepo.Delete(ctx, review), "review")
}
