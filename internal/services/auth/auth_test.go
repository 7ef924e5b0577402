package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/lib/confirmation"
	"imdb/proj/internal/lib/jwt"
	"imdb/proj/internal/lib/logger"
	"imdb/proj/internal/lib/validator"
	"imdb/proj/internal/mails"
	"imdb/proj/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserStorage struct {
	mock.Mock
}

func (m *mockUserStorage) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStorage) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStorage) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStorage) Taken(ctx context.Context, email, username string) (bool, bool, error) {
	args := m.Called(ctx, email, username)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *mockUserStorage) Activate(ctx context.Context, id int64, seenLogin *time.Time, loginAt time.Time) (*models.User, error) {
	args := m.Called(ctx, id, seenLogin, loginAt)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, name string, args any) error {
	return m.Called(ctx, name, args).Error(0)
}

// syncExecutor runs tasks inline.
type syncExecutor struct{}

func (syncExecutor) Add(task func()) error {
	task()
	return nil
}

const secret = "test-secret"

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(users UserStorage, q TaskQueue) (*AuthService, *confirmation.Generator) {
	codes := confirmation.New(secret, time.Hour).WithClock(func() time.Time { return now })
	svc := New(logger.Discard(), users, codes, jwt.NewIssuer(secret, time.Hour), q, syncExecutor{}, time.Hour)
	svc.now = func() time.Time { return now }
	return svc, codes
}

func TestSignup(t *testing.T) {
	users := new(mockUserStorage)
	q := new(mockQueue)
	svc, _ := newTestService(users, q)
	ctx := context.Background()

	users.On("Taken", ctx, "John.Doe@example.com", "john.doe").Return(false, false, nil)
	users.On("Insert", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "John.Doe@example.com" &&
			u.Username == "john.doe" &&
			!u.IsActive &&
			u.Role == models.RoleUser &&
			!u.HasUsablePassword()
	})).Return(&models.User{ID: 1, Email: "John.Doe@example.com", Username: "john.doe"}, nil)
	q.On("Enqueue", mock.Anything, mails.SendEmailTask, mock.MatchedBy(func(args mails.SendEmailArgs) bool {
		return args.Recipient == "John.Doe@example.com" && args.Subject == "Activate your account."
	})).Return(nil)

	email, err := svc.Signup(ctx, SignupInput{Email: " John.Doe@EXAMPLE.com "})
	require.NoError(t, err)
	assert.Equal(t, "John.Doe@example.com", email)
	users.AssertExpectations(t)
	q.AssertExpectations(t)
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name          string
		input         SignupInput
		emailTaken    bool
		usernameTaken bool
		wantFields    []string
	}{
		{name: "missing email", input: SignupInput{}, wantFields: []string{"email"}},
		{name: "malformed email", input: SignupInput{Email: "not-an-email"}, wantFields: []string{"email"}},
		{name: "email taken", input: SignupInput{Email: "a@b.com"}, emailTaken: true, wantFields: []string{"email"}},
		{name: "username taken", input: SignupInput{Email: "a@b.com", Username: "neo"}, usernameTaken: true, wantFields: []string{"username"}},
		{name: "both taken", input: SignupInput{Email: "a@b.com"}, emailTaken: true, usernameTaken: true, wantFields: []string{"email", "username"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mockUserStorage)
			q := new(mockQueue)
			svc, _ := newTestService(users, q)
			users.On("Taken", mock.Anything, mock.Anything, mock.Anything).Return(tt.emailTaken, tt.usernameTaken, nil)

			_, err := svc.Signup(context.Background(), tt.input)
			var errs validator.Errors
			require.ErrorAs(t, err, &errs)
			for _, field := range tt.wantFields {
				assert.Contains(t, errs, field)
			}
			assert.Len(t, errs, len(tt.wantFields))
			users.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
			q.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSignupEnqueueFailureIsNotSurfaced(t *testing.T) {
	users := new(mockUserStorage)
	q := new(mockQueue)
	svc, _ := newTestService(users, q)
	users.On("Taken", mock.Anything, "a@b.com", "a").Return(false, false, nil)
	users.On("Insert", mock.Anything, mock.Anything).Return(&models.User{ID: 1, Email: "a@b.com", Username: "a"}, nil)
	q.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	email, err := svc.Signup(context.Background(), SignupInput{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)
}

func TestConfirm(t *testing.T) {
	inactive := &models.User{ID: 7, Email: "a@b.com", PasswordHash: "!x"}
	ctx := context.Background()

	t.Run("valid code", func(t *testing.T) {
		users := new(mockUserStorage)
		svc, codes := newTestService(users, new(mockQueue))
		code := codes.MakeToken(inactive)
		users.On("GetByEmail", ctx, "a@b.com").Return(inactive, nil)
		users.On("Activate", ctx, int64(7), (*time.Time)(nil), now).Return(&models.User{ID: 7, Email: "a@b.com", IsActive: true, LastLogin: &now}, nil)

		token, err := svc.Confirm(ctx, ConfirmInput{Email: "a@b.com", ConfirmationCode: code})
		require.NoError(t, err)
		claims, err := jwt.NewIssuer(secret, time.Hour).Parse(token)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
		users.AssertExpectations(t)
	})

	t.Run("code reused after activation", func(t *testing.T) {
		users := new(mockUserStorage)
		svc, codes := newTestService(users, new(mockQueue))
		code := codes.MakeToken(inactive)
		active := &models.User{ID: 7, Email: "a@b.com", PasswordHash: "!x", IsActive: true, LastLogin: &now}
		users.On("GetByEmail", ctx, "a@b.com").Return(active, nil)

		_, err := svc.Confirm(ctx, ConfirmInput{Email: "a@b.com", ConfirmationCode: code})
		assert.ErrorIs(t, err, ErrInvalidCode)
		users.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("code spent concurrently", func(t *testing.T) {
		users := new(mockUserStorage)
		svc, codes := newTestService(users, new(mockQueue))
		code := codes.MakeToken(inactive)
		users.On("GetByEmail", ctx, "a@b.com").Return(inactive, nil)
		users.On("Activate", ctx, int64(7), (*time.Time)(nil), now).Return(nil, storage.ErrNotFound)

		_, err := svc.Confirm(ctx, ConfirmInput{Email: "a@b.com", ConfirmationCode: code})
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("wrong code", func(t *testing.T) {
		users := new(mockUserStorage)
		svc, _ := newTestService(users, new(mockQueue))
		users.On("GetByEmail", ctx, "a@b.com").Return(inactive, nil)

		_, err := svc.Confirm(ctx, ConfirmInput{Email: "a@b.com", ConfirmationCode: "1-deadbeef"})
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(mockUserStorage)
		svc, _ := newTestService(users, new(mockQueue))
		users.On("GetByEmail", ctx, "x@b.com").Return(nil, storage.ErrNotFound)

		_, err := svc.Confirm(ctx, ConfirmInput{Email: "x@b.com", ConfirmationCode: "abc"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _ := newTestService(new(mockUserStorage), new(mockQueue))
		_, err := svc.Confirm(ctx, ConfirmInput{})
		var errs validator.Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "confirmation_code")
	})
}

func TestResendCode(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive user gets a new code", func(t *testing.T) {
		users := new(mockUserStorage)
		q := new(mockQueue)
		svc, _ := newTestService(users, q)
		users.On("GetByEmail", ctx, "a@b.com").Return(&models.User{ID: 1, Email: "a@b.com"}, nil)
		q.On("Enqueue", mock.Anything, mails.SendEmailTask, mock.Anything).Return(nil)

		require.NoError(t, svc.ResendCode(ctx, ResendInput{Email: "a@b.com"}))
		q.AssertNumberOfCalls(t, "Enqueue", 1)
	})

	t.Run("active user gets a new code", func(t *testing.T) {
		users := new(mockUserStorage)
		q := new(mockQueue)
		svc, _ := newTestService(users, q)
		users.On("GetByEmail", ctx, "a@b.com").Return(&models.User{ID: 1, Email: "a@b.com", IsActive: true}, nil)
		q.On("Enqueue", mock.Anything, mails.SendEmailTask, mock.Anything).Return(nil)

		require.NoError(t, svc.ResendCode(ctx, ResendInput{Email: "a@b.com"}))
		q.AssertNumberOfCalls(t, "Enqueue", 1)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(mockUserStorage)
		svc, _ := newTestService(users, new(mockQueue))
		users.On("GetByEmail", ctx, "a@b.com").Return(nil, storage.ErrNotFound)
		assert.ErrorIs(t, svc.ResendCode(ctx, ResendInput{Email: "a@b.com"}), ErrUserNotFound)
	})
}

func TestResendCodeReissuesTokenForActiveUser(t *testing.T) {
	ctx := context.Background()
	lastLogin := now.Add(-24 * time.Hour)
	admin := &models.User{ID: 9, Email: "root@b.com", Username: "root", PasswordHash: "!x", IsActive: true, Role: models.RoleAdmin, LastLogin: &lastLogin}
	users := new(mockUserStorage)
	q := new(mockQueue)
	svc, codes := newTestService(users, q)
	users.On("GetByEmail", ctx, "root@b.com").Return(admin, nil)
	var sent mails.SendEmailArgs
	q.On("Enqueue", mock.Anything, mails.SendEmailTask, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(2).(mails.SendEmailArgs)
	}).Return(nil)

	require.NoError(t, svc.ResendCode(ctx, ResendInput{Email: "root@b.com"}))
	code := codes.MakeToken(admin)
	assert.Contains(t, sent.Body, code)

	relogged := *admin
	relogged.LastLogin = &now
	users.On("Activate", ctx, int64(9), &lastLogin, now).Return(&relogged, nil)
	token, err := svc.Confirm(ctx, ConfirmInput{Email: "root@b.com", ConfirmationCode: code})
	require.NoError(t, err)
	claims, err := jwt.NewIssuer(secret, time.Hour).Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.False(t, codes.CheckToken(&relogged, code))
	users.AssertExpectations(t)
}

func TestUserByToken(t *testing.T) {
	ctx := context.Background()
	issuer := jwt.NewIssuer(secret, time.Hour)
	active := &models.User{ID: 3, Email: "a@b.com", IsActive: true, Role: models.RoleAdmin}
	token, err := issuer.Issue(active)
	require.NoError(t, err)

	t.Run("active user", func(t *testing.T) {
		users := new(mockUserStorage)
		svc := New(logger.Discard(), users, nil, issuer, nil, syncExecutor{}, time.Hour)
		users.On("GetByID", ctx, int64(3)).Return(active, nil)
		user, err := svc.UserByToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, active, user)
	})

	t.Run("inactive user", func(t *testing.T) {
		users := new(mockUserStorage)
		svc := New(logger.Discard(), users, nil, issuer, nil, syncExecutor{}, time.Hour)
		users.On("GetByID", ctx, int64(3)).Return(&models.User{ID: 3}, nil)
		_, err := svc.UserByToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		users := new(mockUserStorage)
		svc := New(logger.Discard(), users, nil, issuer, nil, syncExecutor{}, time.Hour)
		users.On("GetByID", ctx, int64(3)).Return(nil, storage.ErrNotFound)
		_, err := svc.UserByToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		svc := New(logger.Discard(), new(mockUserStorage), nil, issuer, nil, syncExecutor{}, time.Hour)
		_, err := svc.UserByToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
