package user

import (
	"context"
	"errors"
	"strings"

	"campuspoll/survey-backend/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// GetFromContext extracts the authenticated user from request context
func GetFromContext(ctx context.Context) (*User, bool) {
	userData, ok := ctx.Value(internal.UserContextKey).(*User)
	return userData, ok
}

func (u User) GetID() uuid.UUID {
	return u.ID
}

type Querier interface {
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, arg CreateParams) (User, error)
	Update(ctx context.Context, arg UpdateParams) (User, error)
	UpdateRole(ctx context.Context, arg UpdateRoleParams) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
	CreateCredential(ctx context.Context, arg CreateCredentialParams) error
	ConfirmByToken(ctx context.Context, token uuid.UUID) (uuid.UUID, error)
	RotateConfirmationToken(ctx context.Context, arg RotateConfirmationTokenParams) (pgtype.UUID, error)
	ExistsByOAuth(ctx context.Context, arg ExistsByOAuthParams) (bool, error)
	GetIDByOAuth(ctx context.Context, arg GetIDByOAuthParams) (uuid.UUID, error)
	CreateOAuthAccount(ctx context.Context, arg CreateOAuthAccountParams) error
}

type Service struct {
	logger  *zap.Logger
	queries Querier
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db DBTX) *Service {
	return &Service{
		logger:  logger,
		queries: New(db),
		tracer:  otel.Tracer("user/service"),
	}
}

func (s *Service) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	traceCtx, span := s.tracer.Start(ctx, "ExistsByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	exists, err := s.queries.ExistsByID(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check user existence by id")
		span.RecordError(err)
		return false, err
	}
	return exists, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	currentUser, err := s.queries.GetByID(traceCtx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, internal.ErrUserNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get user by id")
		span.RecordError(err)
		return User{}, err
	}
	return currentUser, nil
}

// SignUp creates a profile and an unconfirmed credential for it.
// The returned token confirms the email out of band.
func (s *Service) SignUp(ctx context.Context, email, password, nickname, schoolName string) (User, uuid.UUID, error) {
	traceCtx, span := s.tracer.Start(ctx, "SignUp")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	email = strings.ToLower(strings.TrimSpace(email))

	exists, err := s.queries.ExistsByEmail(traceCtx, email)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check email existence")
		span.RecordError(err)
		return User{}, uuid.Nil, err
	}
	if exists {
		return User{}, uuid.Nil, internal.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return User{}, uuid.Nil, err
	}

	newUser, err := s.queries.Create(traceCtx, CreateParams{
		Nickname:   nickname,
		SchoolName: pgtype.Text{String: schoolName, Valid: schoolName != ""},
		Role:       RoleUser,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create user")
		span.RecordError(err)
		return User{}, uuid.Nil, err
	}

	confirmationToken := uuid.New()
	err = s.queries.CreateCredential(traceCtx, CreateCredentialParams{
		UserID:            newUser.ID,
		Email:             email,
		PasswordHash:      hash,
		ConfirmationToken: confirmationToken,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create credential")
		span.RecordError(err)
		return User{}, uuid.Nil, err
	}

	logger.Info("User signed up",
		zap.String("user_id", newUser.ID.String()),
		zap.String("nickname", newUser.Nickname))

	return newUser, confirmationToken, nil
}

// Authenticate verifies an email/password pair. An unconfirmed email is a
// distinguished failure so the client can offer a resend affordance.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "Authenticate")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	email = strings.ToLower(strings.TrimSpace(email))

	credential, err := s.queries.GetCredentialByEmail(traceCtx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, internal.ErrInvalidCredentials
		}
		err = databaseutil.WrapDBError(err, logger, "get credential by email")
		span.RecordError(err)
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(credential.PasswordHash, []byte(password)); err != nil {
		return User{}, internal.ErrInvalidCredentials
	}

	if !credential.Confirmed {
		return User{}, internal.ErrEmailNotConfirmed
	}

	return s.GetByID(traceCtx, credential.UserID)
}

func (s *Service) ConfirmEmail(ctx context.Context, token uuid.UUID) (uuid.UUID, error) {
	traceCtx, span := s.tracer.Start(ctx, "ConfirmEmail")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	userID, err := s.queries.ConfirmByToken(traceCtx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, internal.ErrConfirmTokenNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "confirm credential by token")
		span.RecordError(err)
		return uuid.Nil, err
	}

	logger.Info("Email confirmed", zap.String("user_id", userID.String()))
	return userID, nil
}

// ResendConfirmation rotates the confirmation token for an unconfirmed email
// and returns the new token for out-of-band delivery.
func (s *Service) ResendConfirmation(ctx context.Context, email string) (uuid.UUID, error) {
	traceCtx, span := s.tracer.Start(ctx, "ResendConfirmation")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	email = strings.ToLower(strings.TrimSpace(email))

	token, err := s.queries.RotateConfirmationToken(traceCtx, RotateConfirmationTokenParams{
		Email: email,
		Token: uuid.New(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, internal.ErrCredentialNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "rotate confirmation token")
		span.RecordError(err)
		return uuid.Nil, err
	}

	return uuid.UUID(token.Bytes), nil
}

// FindOrCreateOAuth resolves an OAuth identity to a local user, creating the
// profile on first sign-in.
func (s *Service) FindOrCreateOAuth(ctx context.Context, provider, providerID, nickname string) (uuid.UUID, error) {
	traceCtx, span := s.tracer.Start(ctx, "FindOrCreateOAuth")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	exists, err := s.queries.ExistsByOAuth(traceCtx, ExistsByOAuthParams{
		Provider:   provider,
		ProviderID: providerID,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check user existence by oauth")
		span.RecordError(err)
		return uuid.Nil, err
	}

	if exists {
		userID, err := s.queries.GetIDByOAuth(traceCtx, GetIDByOAuthParams{
			Provider:   provider,
			ProviderID: providerID,
		})
		if err != nil {
			err = databaseutil.WrapDBError(err, logger, "get user by oauth")
			span.RecordError(err)
			return uuid.Nil, err
		}
		return userID, nil
	}

	newUser, err := s.queries.Create(traceCtx, CreateParams{
		Nickname: nickname,
		Role:     RoleUser,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create user from oauth")
		span.RecordError(err)
		return uuid.Nil, err
	}

	err = s.queries.CreateOAuthAccount(traceCtx, CreateOAuthAccountParams{
		UserID:     newUser.ID,
		Provider:   provider,
		ProviderID: providerID,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create oauth account")
		span.RecordError(err)
		return uuid.Nil, err
	}

	logger.Debug("Created new user from oauth",
		zap.String("provider", provider),
		zap.String("user_id", newUser.ID.String()))

	return newUser.ID, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, nickname, schoolName string) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "UpdateProfile")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	dbParams := map[string]interface{}{
		"id":       id.String(),
		"nickname": nickname,
	}
	tracker := logutil.StartDBOperation(traceCtx, logger, "Update", dbParams)

	updated, err := s.queries.Update(traceCtx, UpdateParams{
		ID:         id,
		Nickname:   nickname,
		SchoolName: pgtype.Text{String: schoolName, Valid: schoolName != ""},
	})
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "update user profile")
		span.RecordError(err)
		return User{}, err
	}

	tracker.SuccessWrite(id.String())
	return updated, nil
}

func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "UpdateRole")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	if role != RoleUser && role != RoleAdmin {
		return User{}, internal.ErrInvalidRole
	}

	updated, err := s.queries.UpdateRole(traceCtx, UpdateRoleParams{ID: id, Role: role})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, internal.ErrUserNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "update user role")
		span.RecordError(err)
		return User{}, err
	}

	logger.Info("User role updated",
		zap.String("user_id", id.String()),
		zap.String("role", string(role)))

	return updated, nil
}

// Delete removes a user; survey/response ownership cascades at the database level.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	traceCtx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	err := s.queries.Delete(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBErrorWithKeyValue(err, "users", "id", id.String(), logger, "delete user")
		span.RecordError(err)
		return err
	}

	return nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	traceCtx, span := s.tracer.Start(ctx, "List")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	users, err := s.queries.List(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list users")
		span.RecordError(err)
		return nil, err
	}

	return users, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	traceCtx, span := s.tracer.Start(ctx, "Count")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	count, err := s.queries.Count(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "count users")
		span.RecordError(err)
		return 0, err
	}

	return count, nil
}
