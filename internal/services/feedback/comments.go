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
	"imdb/proj/internal/storage"

	govalidator "github.com/go-playground/validator/v10"
)

type CommentStorage interface {
	List(ctx context.Context, reviewID int64, filters filters.Filters) ([]models.Comment, int, error)
	Get(ctx context.Context, reviewID, id int64) (*models.Comment, error)
	Insert(ctx context.Context, reviewID, authorID int64, text string) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Delete(ctx context.Context, reviewID, id int64) error
}

type CommentInput struct {
	Text string `json:"text" validate:"required"`
}

type CommentPatch struct {
	Text *string `json:"text"`
}

type CommentService struct {
	log       *slog.Logger
	validator *govalidator.Validate
	reviews   *ReviewService
	storage   CommentStorage
}

func NewCommentService(log *slog.Logger, reviews *ReviewService, storage CommentStorage) *CommentService {
	return &CommentService{
		log:       log,
		validator: validator.New(),
		reviews:   reviews,
		storage:   storage,
	}
}

func (s *CommentService) List(ctx context.Context, titleID, reviewID int64, f filters.Filters) ([]models.Comment, filters.Metadata, error) {
	const op = "feedback.CommentService.List"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	if errs := validator.ValidateStruct(s.validator, &f); errs != nil {
		return nil, filters.Metadata{}, errs
	}
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, filters.Metadata{}, err
	}
	comments, total, err := s.storage.List(ctx, reviewID, f)
	if err != nil {
		log.Error("failed to list comments", sl.Err(err))
		return nil, filters.Metadata{}, err
	}
	return comments, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

// Get returns the comment only when it belongs to reviewID and the review belongs to titleID.
func (s *CommentService) Get(ctx context.Context, titleID, reviewID, id int64) (*models.Comment, error) {
	const op = "feedback.CommentService.Get"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID, "id", id)
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.storage.Get(ctx, reviewID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("comment not found")
			return nil, ErrCommentNotFound
		}
		log.Error("failed to get comment", sl.Err(err))
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Create(ctx context.Context, actor *models.User, titleID, reviewID int64, input CommentInput) (*models.Comment, error) {
	const op = "feedback.CommentService.Create"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	if err := policy.Authorize(actor, policy.IsAuthenticated(actor)); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.storage.Insert(ctx, reviewID, actor.ID, input.Text)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReference) {
			return nil, ErrReviewNotFound
		}
		log.Error("failed to insert comment", sl.Err(err))
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, actor *models.User, titleID, reviewID, id int64, input CommentInput) (*models.Comment, error) {
	const op = "feedback.CommentService.Update"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID, "id", id)
	comment, err := s.authorizeModify(ctx, actor, titleID, reviewID, id, policy.Update)
	if err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	comment.Text = input.Text
	return s.save(ctx, log, comment)
}

func (s *CommentService) Patch(ctx context.Context, actor *models.User, titleID, reviewID, id int64, patch CommentPatch) (*models.Comment, error) {
	const op = "feedback.CommentService.Patch"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID, "id", id)
	comment, err := s.authorizeModify(ctx, actor, titleID, reviewID, id, policy.Update)
	if err != nil {
		return nil, err
	}
	if patch.Text == nil {
		return comment, nil
	}
	input := CommentInput{Text: *patch.Text}
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	comment.Text = input.Text
	return s.save(ctx, log, comment)
}

func (s *CommentService) Delete(ctx context.Context, actor *models.User, titleID, reviewID, id int64) error {
	const op = "feedback.CommentService.Delete"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID, "id", id)
	if _, err := s.authorizeModify(ctx, actor, titleID, reviewID, id, policy.Delete); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, reviewID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCommentNotFound
		}
		log.Error("failed to delete comment", sl.Err(err))
		return err
	}
	return nil
}

func (s *CommentService) save(ctx context.Context, log *slog.Logger, comment *models.Comment) (*models.Comment, error) {
	updated, err := s.storage.Update(ctx, comment)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		log.Error("failed to update comment", sl.Err(err))
		return nil, err
	}
	return updated, nil
}

func (s *CommentService) authorizeModify(ctx context.Context, actor *models.User, titleID, reviewID, id int64, action policy.Action) (*models.Comment, error) {
	if err := policy.Authorize(actor, policy.IsAuthenticated(actor)); err != nil {
		return nil, err
	}
	comment, err := s.Get(ctx, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.FeedbackModifyPolicy(actor, action, comment.AuthorID)); err != nil {
		return nil, err
	}
	return comment, nil
}
