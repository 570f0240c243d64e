package services

import (
	"context"
	"errors"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/store"
	"github.com/vidtube/backend/internal/validation"
	"github.com/vidtube/backend/internal/views"
)

// UserService implements accounts, sessions and channel pages.
type UserService struct {
	deps Deps
}

// RegisterInput is the payload of a sign-up.
type RegisterInput struct {
	FullName   string  `form:"fullName" validate:"required"`
	Email      string  `form:"email" validate:"required,email"`
	Username   string  `form:"username" validate:"required,min=3,max=30"`
	Password   string  `form:"password" validate:"required,min=8"`
	Avatar     *Upload `form:"-" validate:"-"`
	CoverImage *Upload `form:"-" validate:"-"`
}

// Register creates an account. The avatar is required and the cover image is
// optional.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = repositories.NormalizeEmail(in.Email)
	in.Username = repositories.NormalizeUsername(in.Username)
	if err := validation.Struct(in); err != nil {
		return models.User{}, err
	}
	if in.Avatar == nil {
		return models.User{}, apperr.BadRequest("avatar file is required")
	}

	users := s.deps.Repos.Users
	if err := s.ensureAvailable(ctx, in.Username, in.Email); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal("failed to secure password", err)
	}

	avatar, err := s.deps.uploadMedia(ctx, "avatars", in.Avatar)
	if err != nil {
		return models.User{}, err
	}
	var cover models.Media
	if in.CoverImage != nil {
		if cover, err = s.deps.uploadMedia(ctx, "covers", in.CoverImage); err != nil {
			s.deps.orphaned(ctx, err, avatar)
			return models.User{}, err
		}
	}

	createdAt := now()
	user := models.User{
		ID:           ids.New(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       avatar,
		CoverImage:   cover,
		WatchHistory: []ids.ID{},
		PasswordHash: hash,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := users.Create(ctx, user); err != nil {
		s.deps.orphaned(ctx, err, avatar, cover)
		if errors.Is(err, store.ErrConflict) {
			return models.User{}, apperr.Conflict("user with email or username already exists")
		}
		return models.User{}, apperr.Internal("failed to create user", err)
	}
	return user, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, username, email string) error {
	users := s.deps.Repos.Users
	for _, find := range []func() (models.User, error){
		func() (models.User, error) { return users.FindByUsername(ctx, username) },
		func() (models.User, error) { return users.FindByEmail(ctx, email) },
	} {
		_, err := find()
		switch {
		case err == nil:
			return apperr.Conflict("user with email or username already exists")
		case !errors.Is(err, store.ErrNotFound):
			return apperr.Internal("failed to check existing users", err)
		}
	}
	return nil
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a session.
func (s *UserService) Login(ctx context.Context, in LoginInput) (models.User, models.AuthTokens, error) {
	if strings.TrimSpace(in.Username) == "" && strings.TrimSpace(in.Email) == "" {
		return models.User{}, models.AuthTokens{}, apperr.BadRequest("username or email is required")
	}
	if err := validation.Struct(in); err != nil {
		return models.User{}, models.AuthTokens{}, err
	}

	users := s.deps.Repos.Users
	var (
		user models.User
		err  error
	)
	if strings.TrimSpace(in.Username) != "" {
		user, err = users.FindByUsername(ctx, in.Username)
	} else {
		user, err = users.FindByEmail(ctx, in.Email)
	}
	if err != nil {
		return models.User{}, models.AuthTokens{}, lookupErr(err, "user")
	}

	if err := auth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		s.deps.logger(ctx).Warn("login password mismatch", "user_id", user.ID.Hex())
		return models.User{}, models.AuthTokens{}, apperr.Unauthorized("invalid user credentials")
	}

	tokens, err := s.deps.Tokens.Issue(ctx, user)
	if err != nil {
		return models.User{}, models.AuthTokens{}, apperr.Internal("failed to create session", err)
	}
	return user, tokens, nil
}

// Logout revokes the stored refresh token.
func (s *UserService) Logout(ctx context.Context, user ids.ID) error {
	if err := s.deps.Tokens.Revoke(ctx, user); err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Internal("failed to end session", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a rotated pair.
func (s *UserService) Refresh(ctx context.Context, token string) (models.AuthTokens, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.AuthTokens{}, apperr.Unauthorized("refresh token is required")
	}
	userID, err := s.deps.Tokens.VerifyRefresh(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrSessionNotFound) {
			return models.AuthTokens{}, apperr.Unauthorized("refresh token is expired or used")
		}
		return models.AuthTokens{}, apperr.Internal("failed to verify refresh token", err)
	}
	user, err := s.deps.Repos.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.AuthTokens{}, apperr.Unauthorized("invalid refresh token")
		}
		return models.AuthTokens{}, apperr.Internal("failed to load user", err)
	}
	tokens, err := s.deps.Tokens.Issue(ctx, user)
	if err != nil {
		return models.AuthTokens{}, apperr.Internal("failed to create session", err)
	}
	return tokens, nil
}

// ChangePasswordInput carries the current and the replacement password.
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID ids.ID, in ChangePasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	user, err := s.deps.Repos.Users.FindByID(ctx, userID)
	if err != nil {
		return lookupErr(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, in.OldPassword); err != nil {
		return apperr.BadRequest("invalid old password")
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return apperr.Internal("failed to secure password", err)
	}
	if err := s.deps.Repos.Users.SetPassword(ctx, userID, hash); err != nil {
		return writeErr(err, "update", "password")
	}
	return nil
}

// Current returns the authenticated user.
func (s *UserService) Current(ctx context.Context, userID ids.ID) (models.User, error) {
	user, err := s.deps.Repos.Users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, lookupErr(err, "user")
	}
	return user, nil
}

// UpdateAccountInput holds the editable account fields.
type UpdateAccountInput struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// UpdateAccount changes the full name and email.
func (s *UserService) UpdateAccount(ctx context.Context, userID ids.ID, in UpdateAccountInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = repositories.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return models.User{}, err
	}
	if err := s.deps.Repos.Users.UpdateAccount(ctx, userID, in.FullName, in.Email); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.User{}, apperr.Conflict("email is already in use")
		}
		return models.User{}, writeErr(err, "update", "user")
	}
	return s.Current(ctx, userID)
}

// UpdateAvatar replaces the avatar. The previous asset is deleted
// best-effort.
func (s *UserService) UpdateAvatar(ctx context.Context, userID ids.ID, file *Upload) (models.User, error) {
	return s.replaceMedia(ctx, userID, repositories.FieldAvatar, "avatars", file)
}

// UpdateCoverImage replaces the cover image. The previous asset is deleted
// best-effort.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID ids.ID, file *Upload) (models.User, error) {
	return s.replaceMedia(ctx, userID, repositories.FieldCoverImage, "covers", file)
}

func (s *UserService) replaceMedia(ctx context.Context, userID ids.ID, field, folder string, file *Upload) (models.User, error) {
	if file == nil {
		return models.User{}, apperr.BadRequest(field + " file is missing")
	}
	user, err := s.deps.Repos.Users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, lookupErr(err, "user")
	}
	previous := user.Avatar
	if field == repositories.FieldCoverImage {
		previous = user.CoverImage
	}

	media, err := s.deps.uploadMedia(ctx, folder, file)
	if err != nil {
		return models.User{}, err
	}
	if err := s.deps.Repos.Users.SetMedia(ctx, userID, field, media); err != nil {
		s.deps.orphaned(ctx, err, media)
		return models.User{}, writeErr(err, "update", field)
	}
	s.deps.discardMedia(ctx, "replaced "+field, previous)

	if field == repositories.FieldCoverImage {
		user.CoverImage = media
	} else {
		user.Avatar = media
	}
	return user, nil
}

// ChannelProfile returns a channel page as seen by requester.
func (s *UserService) ChannelProfile(ctx context.Context, username string, requester ids.ID) (models.ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return models.ChannelProfile{}, apperr.BadRequest("username is missing")
	}
	rows, err := runView[models.ChannelProfile](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.ChannelProfile(username, requester)
	})
	if err != nil {
		return models.ChannelProfile{}, err
	}
	if len(rows) == 0 {
		return models.ChannelProfile{}, apperr.NotFound("channel does not exist")
	}
	return rows[0], nil
}

// WatchHistory lists the videos the user watched in first-view order.
func (s *UserService) WatchHistory(ctx context.Context, userID ids.ID) ([]models.VideoCard, error) {
	user, err := s.deps.Repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	rows, err := runView[models.WatchHistory](ctx, s.deps.Store, func() (pipeline.Pipeline, error) {
		return views.WatchHistory(userID)
	})
	if err != nil {
		return nil, err
	}
	out := []models.VideoCard{}
	if len(rows) == 0 {
		return out, nil
	}

	// The join returns videos in store order; the user document holds the
	// viewing order.
	joined := rows[0].WatchHistory
	for _, id := range user.WatchHistory {
		for _, v := range joined {
			if ids.Equal(v.ID, id) {
				out = append(out, v)
				break
			}
		}
	}
	return out, nil
}
