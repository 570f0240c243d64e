package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/store"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id ids.ID) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id ids.ID, fullName, email string) error
	SetPassword(ctx context.Context, id ids.ID, hash string) error
	SetRefreshToken(ctx context.Context, id ids.ID, token string) error
	ClearRefreshToken(ctx context.Context, id ids.ID) error
	SetMedia(ctx context.Context, id ids.ID, field string, media models.Media) error
	AppendWatchHistory(ctx context.Context, id, video ids.ID) error
}

// Media fields of a user.
const (
	FieldAvatar     = "avatar"
	FieldCoverImage = "coverImage"
)

// DocumentUserRepository stores users in the users collection.
type DocumentUserRepository struct {
	users store.Collection[models.User]
}

// NewDocumentUserRepository constructs a user repository backed by s.
func NewDocumentUserRepository(s store.Store) *DocumentUserRepository {
	return &DocumentUserRepository{users: store.NewCollection[models.User](s, store.Users)}
}

// Create persists a new user. Username and email are stored lowercased.
func (r *DocumentUserRepository) Create(ctx context.Context, user models.User) error {
	user.Username = NormalizeUsername(user.Username)
	user.Email = NormalizeEmail(user.Email)
	if user.WatchHistory == nil {
		user.WatchHistory = []ids.ID{}
	}
	if err := r.users.Insert(ctx, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByID fetches a user by id.
func (r *DocumentUserRepository) FindByID(ctx context.Context, id ids.ID) (models.User, error) {
	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}
	return user, nil
}

// FindByUsername fetches a user by username.
func (r *DocumentUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := r.users.FindOne(ctx, pipeline.Eq("username", NormalizeUsername(username)))
	if err != nil {
		return models.User{}, fmt.Errorf("select user by username: %w", err)
	}
	return user, nil
}

// FindByEmail fetches a user by their email address.
func (r *DocumentUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := r.users.FindOne(ctx, pipeline.Eq("email", NormalizeEmail(email)))
	if err != nil {
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return user, nil
}

// UpdateAccount changes the editable account details.
func (r *DocumentUserRepository) UpdateAccount(ctx context.Context, id ids.ID, fullName, email string) error {
	return r.set(ctx, id, "update account", map[string]any{
		"fullName": strings.TrimSpace(fullName),
		"email":    NormalizeEmail(email),
	})
}

// SetPassword replaces the stored password hash.
func (r *DocumentUserRepository) SetPassword(ctx context.Context, id ids.ID, hash string) error {
	return r.set(ctx, id, "update password", map[string]any{"password": hash})
}

// SetRefreshToken records the refresh token issued at login or rotation.
func (r *DocumentUserRepository) SetRefreshToken(ctx context.Context, id ids.ID, token string) error {
	return r.set(ctx, id, "update refresh token", map[string]any{"refreshToken": token})
}

// ClearRefreshToken revokes the stored refresh token.
func (r *DocumentUserRepository) ClearRefreshToken(ctx context.Context, id ids.ID) error {
	if err := r.users.UpdateByID(ctx, id, store.Update{Unset: []string{"refreshToken"}}); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// SetMedia replaces the avatar or cover image.
func (r *DocumentUserRepository) SetMedia(ctx context.Context, id ids.ID, field string, media models.Media) error {
	if field != FieldAvatar && field != FieldCoverImage {
		return fmt.Errorf("update user media: unknown field %q", field)
	}
	return r.set(ctx, id, "update "+field, map[string]any{field: media})
}

// AppendWatchHistory adds video to the end of the history unless it is
// already present.
func (r *DocumentUserRepository) AppendWatchHistory(ctx context.Context, id, video ids.ID) error {
	err := r.users.UpdateByID(ctx, id, store.Update{AddToSet: map[string]any{"watchHistory": video}})
	if err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}
	return nil
}

func (r *DocumentUserRepository) set(ctx context.Context, id ids.ID, op string, fields map[string]any) error {
	fields["updatedAt"] = now()
	if err := r.users.UpdateByID(ctx, id, store.Update{Set: fields}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
