// Package feedback manages reviews of titles and comments on reviews.
package feedback

import (
	"context"
	"errors"
	"log/slog"

	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/domain/policy"
	"imdb/proj/internal/lib/logger/sl"
	"imdb/proj/internal/lib/validator"
	"imdb/proj/internal/services/catalog"
	"imdb/proj/internal/storage"

	govalidator "github.com/go-playground/validator/v10"
)

type TitleLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ReviewStorage interface {
	List(ctx context.Context, titleID int64, filters filters.Filters) ([]models.Review, int, error)
	Get(ctx context.Context, titleID, id int64) (*models.Review, error)
	Insert(ctx context.Context, titleID, authorID int64, text string, score int16) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) (*models.Review, error)
	Delete(ctx context.Context, titleID, id int64) error
}

type ReviewInput struct {
	Text  string `json:"text" validate:"required"`
	Score *int16 `json:"score" validate:"required,gte=1,lte=10"`
}

type ReviewPatch struct {
	Text  *string `json:"text"`
	Score *int16  `json:"score"`
}

type ReviewService struct {
	log       *slog.Logger
	validator *govalidator.Validate
	titles    TitleLookup
	storage   ReviewStorage
	cache     catalog.Cache
}

func NewReviewService(log *slog.Logger, titles TitleLookup, storage ReviewStorage, cache catalog.Cache) *ReviewService {
	return &ReviewService{
		log:       log,
		validator: validator.New(),
		titles:    titles,
		storage:   storage,
		cache:     cache,
	}
}

func (s *ReviewService) List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, filters.Metadata, error) {
	const op = "feedback.ReviewService.List"
	log := s.log.With("op", op, "title_id", titleID)
	if errs := validator.ValidateStruct(s.validator, &f); errs != nil {
		return nil, filters.Metadata{}, errs
	}
	if err := s.ensureTitle(ctx, log, titleID); err != nil {
		return nil, filters.Metadata{}, err
	}
	reviews, total, err := s.storage.List(ctx, titleID, f)
	if err != nil {
		log.Error("failed to list reviews", sl.Err(err))
		return nil, filters.Metadata{}, err
	}
	return reviews, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

// Get returns the review only when it belongs to titleID.
func (s *ReviewService) Get(ctx context.Context, titleID, id int64) (*models.Review, error) {
	const op = "feedback.ReviewService.Get"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	review, err := s.storage.Get(ctx, titleID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return nil, ErrReviewNotFound
		}
		log.Error("failed to get review", sl.Err(err))
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Create(ctx context.Context, actor *models.User, titleID int64, input ReviewInput) (*models.Review, error) {
	const op = "feedback.ReviewService.Create"
	log := s.log.With("op", op, "title_id", titleID)
	if err := policy.Authorize(actor, policy.IsAuthenticated(actor)); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	if err := s.ensureTitle(ctx, log, titleID); err != nil {
		return nil, err
	}
	review, err := s.storage.Insert(ctx, titleID, actor.ID, input.Text, *input.Score)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			log.Info("title already reviewed", "author_id", actor.ID)
			return nil, ErrAlreadyReviewed
		case errors.Is(err, storage.ErrInvalidReference):
			return nil, ErrTitleNotFound
		}
		log.Error("failed to insert review", sl.Err(err))
		return nil, err
	}
	catalog.InvalidateTitles(ctx, s.cache, log)
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, actor *models.User, titleID, id int64, input ReviewInput) (*models.Review, error) {
	const op = "feedback.ReviewService.Update"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	review, err := s.authorizeModify(ctx, actor, titleID, id, policy.Update)
	if err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	review.Text = input.Text
	review.Score = *input.Score
	return s.save(ctx, log, review)
}

func (s *ReviewService) Patch(ctx context.Context, actor *models.User, titleID, id int64, patch ReviewPatch) (*models.Review, error) {
	const op = "feedback.ReviewService.Patch"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	review, err := s.authorizeModify(ctx, actor, titleID, id, policy.Update)
	if err != nil {
		return nil, err
	}
	input := ReviewInput{Text: review.Text, Score: &review.Score}
	if patch.Text != nil {
		input.Text = *patch.Text
	}
	if patch.Score != nil {
		input.Score = patch.Score
	}
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	review.Text = input.Text
	review.Score = *input.Score
	return s.save(ctx, log, review)
}

func (s *ReviewService) Delete(ctx context.Context, actor *models.User, titleID, id int64) error {
	const op = "feedback.ReviewService.Delete"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	if _, err := s.authorizeModify(ctx, actor, titleID, id, policy.Delete); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, titleID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrReviewNotFound
		}
		log.Error("failed to delete review", sl.Err(err))
		return err
	}
	catalog.InvalidateTitles(ctx, s.cache, log)
	return nil
}

func (s *ReviewService) save(ctx context.Context, log *slog.Logger, review *models.Review) (*models.Review, error) {
	updated, err := s.storage.Update(ctx, review)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		log.Error("failed to update review", sl.Err(err))
		return nil, err
	}
	catalog.InvalidateTitles(ctx, s.cache, log)
	return updated, nil
}

// authorizeModify loads the review and checks actor may apply action to it.
// Anonymous actors are rejected before the lookup.
func (s *ReviewService) authorizeModify(ctx context.Context, actor *models.User, titleID, id int64, action policy.Action) (*models.Review, error) {
	if err := policy.Authorize(actor, policy.IsAuthenticated(actor)); err != nil {
		return nil, err
	}
	review, err := s.Get(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.FeedbackModifyPolicy(actor, action, review.AuthorID)); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ensureTitle(ctx context.Context, log *slog.Logger, titleID int64) error {
	exists, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		log.Error("failed to check title", sl.Err(err))
		return err
	}
	if !exists {
		log.Info("title not found")
		return ErrTitleNotFound
	}
	return nil
}
