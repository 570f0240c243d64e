package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// RefreshCookie names the cookie carrying the refresh token.
const RefreshCookie = "refreshToken"

// UserHandler implements account, session and channel endpoints.
type UserHandler struct {
	Users          *services.UserService
	MaxUploadBytes int64
	SecureCookies  bool
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

type sessionResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register handles POST /users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := multipartForm(w, r, h.MaxUploadBytes); err != nil {
		response.Error(w, r, err)
		return
	}
	avatar, closeAvatar, err := formFile(r, "avatar")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	defer closeAvatar()
	cover, closeCover, err := formFile(r, "coverImage")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	defer closeCover()

	user, err := h.Users.Register(r.Context(), services.RegisterInput{
		FullName:   formValue(r, "fullName"),
		Email:      formValue(r, "email"),
		Username:   formValue(r, "username"),
		Password:   r.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	user, tokens, err := h.Users.Login(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	h.setSessionCookies(w, tokens)
	response.JSON(w, r, http.StatusOK, sessionResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.Users.Logout(r.Context(), user); err != nil {
		response.Error(w, r, err)
		return
	}
	h.clearSessionCookies(w)
	response.JSON(w, r, http.StatusOK, nil, "User logged out")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles POST /users/refresh-token. The token is read from the
// refresh cookie or the request body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if c, err := r.Cookie(RefreshCookie); err == nil {
		req.RefreshToken = c.Value
	}
	if req.RefreshToken == "" {
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
	}
	tokens, err := h.Users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	h.setSessionCookies(w, tokens)
	response.JSON(w, r, http.StatusOK, tokens, "Access token refreshed")
}

// ChangePassword handles POST /users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var req services.ChangePasswordInput
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.Users.ChangePassword(r.Context(), user, req); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, nil, "Password changed successfully")
}

// CurrentUser handles GET /users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	id, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	user, err := h.Users.Current(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var req services.UpdateAccountInput
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	user, err := h.Users.UpdateAccount(r.Context(), id, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceMedia(w, r, "avatar", h.Users.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceMedia(w, r, "coverImage", h.Users.UpdateCoverImage, "Cover image updated successfully")
}

func (h UserHandler) replaceMedia(w http.ResponseWriter, r *http.Request, field string, apply func(context.Context, ids.ID, *services.Upload) (models.User, error), message string) {
	id, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := multipartForm(w, r, h.MaxUploadBytes); err != nil {
		response.Error(w, r, err)
		return
	}
	file, closeFile, err := formFile(r, field)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	defer closeFile()

	user, err := apply(r.Context(), id, file)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user, message)
}

// ChannelProfile handles GET /users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Users.ChannelProfile(r.Context(), chi.URLParam(r, "username"), optionalRequester(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	id, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	history, err := h.Users.WatchHistory(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, history, "Watch history fetched successfully")
}

func (h UserHandler) setSessionCookies(w http.ResponseWriter, tokens models.AuthTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessCookie, tokens.AccessToken, h.AccessTTL))
	http.SetCookie(w, h.cookie(RefreshCookie, tokens.RefreshToken, h.RefreshTTL))
}

func (h UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessCookie, RefreshCookie} {
		c := h.cookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h UserHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
