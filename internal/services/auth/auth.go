package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/lib/jwt"
	"imdb/proj/internal/lib/logger/sl"
	"imdb/proj/internal/lib/validator"
	"imdb/proj/internal/mails"
	"imdb/proj/internal/storage"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type UserStorage interface {
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Taken(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
	// Activate marks the user active and stamps loginAt, provided last_login still equals seenLogin.
	Activate(ctx context.Context, id int64, seenLogin *time.Time, loginAt time.Time) (*models.User, error)
}

type CodeGenerator interface {
	MakeToken(user *models.User) string
	CheckToken(user *models.User, code string) bool
}

type TokenIssuer interface {
	Issue(user *models.User) (string, error)
	Parse(token string) (*jwt.Claims, error)
}

type TaskQueue interface {
	Enqueue(ctx context.Context, name string, args any) error
}

type TaskExecutor interface {
	Add(task func()) error
}

type AuthService struct {
	log          *slog.Logger
	validator    *govalidator.Validate
	users        UserStorage
	codes        CodeGenerator
	tokens       TokenIssuer
	queue        TaskQueue
	taskExecutor TaskExecutor
	codeTTL      time.Duration
	now          func() time.Time
}

func New(
	log *slog.Logger,
	users UserStorage,
	codes CodeGenerator,
	tokens TokenIssuer,
	queue TaskQueue,
	taskExecutor TaskExecutor,
	codeTTL time.Duration,
) *AuthService {
	return &AuthService{
		log:          log,
		validator:    validator.New(),
		users:        users,
		codes:        codes,
		tokens:       tokens,
		queue:        queue,
		taskExecutor: taskExecutor,
		codeTTL:      codeTTL,
		now:          time.Now,
	}
}

type SignupInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"omitempty,max=150,printascii"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type ConfirmInput struct {
	Email            string `json:"email" validate:"required,email"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

type ResendInput struct {
	Email string `json:"email" validate:"required,email"`
}

// normalizeEmail lower-cases the domain part, leaving the local part as typed.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	local, domain, found := strings.Cut(email, "@")
	if !found {
		return email
	}
	return local + "@" + strings.ToLower(domain)
}

func defaultUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return strings.ToLower(local)
}

// Signup creates an inactive user and mails it a confirmation code.
func (a *AuthService) Signup(ctx context.Context, input SignupInput) (string, error) {
	const op = "auth.AuthService.Signup"
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	log := a.log.With("op", op, "email", input.Email)
	if errs := validator.ValidateStruct(a.validator, &input); errs != nil {
		return "", errs
	}
	if input.Username == "" {
		input.Username = defaultUsername(input.Email)
	}
	emailTaken, usernameTaken, err := a.users.Taken(ctx, input.Email, input.Username)
	if err != nil {
		log.Error("failed to check user uniqueness", sl.Err(err))
		return "", err
	}
	if errs := takenErrors(emailTaken, usernameTaken); errs != nil {
		log.Info("user already exists")
		return "", errs
	}
	user, err := a.users.Insert(ctx, &models.User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         models.RoleUser,
		IsActive:     false,
		PasswordHash: models.UnusablePasswordPrefix + uuid.NewString(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("user created concurrently", sl.Err(err))
			return "", takenErrors(!strings.Contains(err.Error(), "username"), strings.Contains(err.Error(), "username"))
		}
		log.Error("failed to insert user", sl.Err(err))
		return "", err
	}
	a.sendConfirmationCode(user)
	return user.Email, nil
}

func takenErrors(emailTaken, usernameTaken bool) validator.Errors {
	errs := make(validator.Errors)
	if emailTaken {
		errs["email"] = "User with this email already exists"
	}
	if usernameTaken {
		errs["username"] = "User with this username already exists"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Confirm activates the user when code matches and returns an access token.
// Every successful call moves last_login, so each code is accepted once.
func (a *AuthService) Confirm(ctx context.Context, input ConfirmInput) (string, error) {
	const op = "auth.AuthService.Confirm"
	input.Email = normalizeEmail(input.Email)
	log := a.log.With("op", op, "email", input.Email)
	if errs := validator.ValidateStruct(a.validator, &input); errs != nil {
		return "", errs
	}
	user, err := a.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return "", ErrUserNotFound
		}
		log.Error("failed to get user", sl.Err(err))
		return "", err
	}
	if !a.codes.CheckToken(user, input.ConfirmationCode) {
		log.Info("confirmation code rejected")
		return "", ErrInvalidCode
	}
	// a code is spent by moving last_login; losing the race means someone else spent it first
	user, err = a.users.Activate(ctx, user.ID, user.LastLogin, a.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("confirmation code already used")
			return "", ErrInvalidCode
		}
		log.Error("failed to activate user", sl.Err(err))
		return "", err
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return "", err
	}
	log.Info("user activated", "user_id", user.ID)
	return token, nil
}

// ResendCode mails a fresh confirmation code. Active users use it to obtain a new access token.
func (a *AuthService) ResendCode(ctx context.Context, input ResendInput) error {
	const op = "auth.AuthService.ResendCode"
	input.Email = normalizeEmail(input.Email)
	log := a.log.With("op", op, "email", input.Email)
	if errs := validator.ValidateStruct(a.validator, &input); errs != nil {
		return errs
	}
	user, err := a.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return ErrUserNotFound
		}
		log.Error("failed to get user", sl.Err(err))
		return err
	}
	a.sendConfirmationCode(user)
	return nil
}

// UserByToken resolves a bearer token to an active user.
func (a *AuthService) UserByToken(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.AuthService.UserByToken"
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		a.log.Error("failed to get user", "op", op, "user_id", claims.UserID, sl.Err(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (a *AuthService) sendConfirmationCode(user *models.User) {
	const op = "auth.AuthService.sendConfirmationCode"
	log := a.log.With("op", op, "email", user.Email)
	msg, err := mails.Render("confirmation.tmpl", map[string]any{
		"Username":  user.Username,
		"Code":      a.codes.MakeToken(user),
		"ExpiresIn": a.codeTTL.String(),
	})
	if err != nil {
		log.Error("failed to render confirmation email", sl.Err(err))
		return
	}
	args := mails.SendEmailArgs{Message: msg, Recipient: user.Email}
	err = a.taskExecutor.Add(func() {
		if err := a.queue.Enqueue(context.Background(), mails.SendEmailTask, args); err != nil {
			log.Error("failed to enqueue confirmation email", sl.Err(err))
		}
	})
	if err != nil {
		log.Error("failed to schedule confirmation email", sl.Err(err))
	}
}
