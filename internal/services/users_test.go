package services

import (
	"testing"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/ids"
)

func TestRegisterValidatesAndRejectsDuplicates(t *testing.T) {
	e := newEnv(t)
	user := e.register("Alice")

	if user.Username != "alice" {
		t.Fatalf("expected normalized username, got %q", user.Username)
	}
	if user.Avatar.StorageID == "" || !e.media.Has(user.Avatar.StorageID) {
		t.Fatalf("expected avatar to be uploaded, got %+v", user.Avatar)
	}
	if user.CoverImage.URL != "" {
		t.Fatalf("expected empty cover image, got %+v", user.CoverImage)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password-Alice" {
		t.Fatal("expected password to be hashed")
	}

	tests := []struct {
		name string
		in   RegisterInput
		kind apperr.Kind
	}{
		{"missing avatar", RegisterInput{FullName: "Bob", Email: "bob@example.com", Username: "bob", Password: "password1"}, apperr.KindBadRequest},
		{"bad email", RegisterInput{FullName: "Bob", Email: "bob", Username: "bob", Password: "password1", Avatar: file("a.png", "x")}, apperr.KindBadRequest},
		{"short password", RegisterInput{FullName: "Bob", Email: "bob@example.com", Username: "bob", Password: "short", Avatar: file("a.png", "x")}, apperr.KindBadRequest},
		{"taken username", RegisterInput{FullName: "A", Email: "other@example.com", Username: " ALICE ", Password: "password1", Avatar: file("a.png", "x")}, apperr.KindConflict},
		{"taken email", RegisterInput{FullName: "A", Email: "Alice@Example.com", Username: "alice2", Password: "password1", Avatar: file("a.png", "x")}, apperr.KindConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := e.media.Len()
			_, err := e.svc.Users.Register(e.ctx, tc.in)
			wantKind(t, err, tc.kind)
			if e.media.Len() != before {
				t.Fatal("rejected registration must not upload media")
			}
		})
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	e := newEnv(t)
	user := e.register("carol")

	_, _, err := e.svc.Users.Login(e.ctx, LoginInput{Password: "x"})
	wantKind(t, err, apperr.KindBadRequest)

	_, _, err = e.svc.Users.Login(e.ctx, LoginInput{Username: "nobody", Password: "password-carol"})
	wantKind(t, err, apperr.KindNotFound)

	_, _, err = e.svc.Users.Login(e.ctx, LoginInput{Email: "carol@example.com", Password: "wrong-password"})
	wantKind(t, err, apperr.KindUnauthorized)

	got, tokens, err := e.svc.Users.Login(e.ctx, LoginInput{Username: "CAROL", Password: "password-carol"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !ids.Equal(got.ID, user.ID) || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("unexpected login result %+v %+v", got, tokens)
	}

	rotated, err := e.svc.Users.Refresh(e.ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}
	_, err = e.svc.Users.Refresh(e.ctx, tokens.RefreshToken)
	wantKind(t, err, apperr.KindUnauthorized)

	if err := e.svc.Users.Logout(e.ctx, user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = e.svc.Users.Refresh(e.ctx, rotated.RefreshToken)
	wantKind(t, err, apperr.KindUnauthorized)

	_, err = e.svc.Users.Refresh(e.ctx, "  ")
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestChangePasswordAndUpdateAccount(t *testing.T) {
	e := newEnv(t)
	user := e.register("dave")
	e.register("erin")

	err := e.svc.Users.ChangePassword(e.ctx, user.ID, ChangePasswordInput{OldPassword: "nope-nope", NewPassword: "brand-new-pass"})
	wantKind(t, err, apperr.KindBadRequest)

	if err := e.svc.Users.ChangePassword(e.ctx, user.ID, ChangePasswordInput{OldPassword: "password-dave", NewPassword: "brand-new-pass"}); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, err := e.svc.Users.Login(e.ctx, LoginInput{Username: "dave", Password: "brand-new-pass"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	updated, err := e.svc.Users.UpdateAccount(e.ctx, user.ID, UpdateAccountInput{FullName: " Dave D ", Email: "DAVE@new.example.com"})
	if err != nil {
		t.Fatalf("update account: %v", err)
	}
	if updated.FullName != "Dave D" || updated.Email != "dave@new.example.com" {
		t.Fatalf("unexpected account %+v", updated)
	}

	_, err = e.svc.Users.UpdateAccount(e.ctx, user.ID, UpdateAccountInput{FullName: "Dave", Email: "erin@example.com"})
	wantKind(t, err, apperr.KindConflict)

	_, err = e.svc.Users.UpdateAccount(e.ctx, user.ID, UpdateAccountInput{FullName: "", Email: "x@example.com"})
	wantKind(t, err, apperr.KindBadRequest)
}

func TestReplaceMediaDeletesPreviousAsset(t *testing.T) {
	e := newEnv(t)
	user := e.register("frank")
	old := user.Avatar.StorageID

	updated, err := e.svc.Users.UpdateAvatar(e.ctx, user.ID, file("new.png", "new avatar"))
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if e.media.Has(old) {
		t.Fatal("expected previous avatar to be deleted")
	}
	if !e.media.Has(updated.Avatar.StorageID) {
		t.Fatal("expected new avatar to be stored")
	}

	cover, err := e.svc.Users.UpdateCoverImage(e.ctx, user.ID, file("cover.jpg", "cover"))
	if err != nil {
		t.Fatalf("update cover: %v", err)
	}
	stored, err := e.svc.Users.Current(e.ctx, user.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if stored.CoverImage.StorageID != cover.CoverImage.StorageID || stored.Avatar.StorageID != updated.Avatar.StorageID {
		t.Fatalf("unexpected stored media %+v", stored)
	}

	_, err = e.svc.Users.UpdateAvatar(e.ctx, user.ID, nil)
	wantKind(t, err, apperr.KindBadRequest)
}

func TestChannelProfile(t *testing.T) {
	e := newEnv(t)
	channel := e.register("grace")
	fan := e.register("heidi")
	if _, err := e.svc.Subscriptions.Toggle(e.ctx, fan.ID, channel.ID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	profile, err := e.svc.Users.ChannelProfile(e.ctx, " Grace ", fan.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscribersCount != 1 || !profile.IsSubscribed || profile.ChannelsSubscribedToCount != 0 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	_, err = e.svc.Users.ChannelProfile(e.ctx, "ghost", fan.ID)
	wantKind(t, err, apperr.KindNotFound)
}

func TestWatchHistoryKeepsFirstViewOrder(t *testing.T) {
	e := newEnv(t)
	owner := e.register("ivan")
	viewer := e.register("judy")
	first := e.video(owner.ID, "first", true)
	second := e.video(owner.ID, "second", true)

	for _, v := range []ids.ID{second.ID, first.ID, second.ID} {
		if err := e.repos.Users.AppendWatchHistory(e.ctx, viewer.ID, v); err != nil {
			t.Fatalf("append history: %v", err)
		}
	}

	history, err := e.svc.Users.WatchHistory(e.ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if !ids.Equal(history[0].ID, second.ID) || !ids.Equal(history[1].ID, first.ID) {
		t.Fatalf("expected first-view order, got %s then %s", history[0].Title, history[1].Title)
	}
	if history[0].OwnerDetails == nil || history[0].OwnerDetails.Username != "ivan" {
		t.Fatalf("expected owner details, got %+v", history[0].OwnerDetails)
	}

	empty, err := e.svc.Users.WatchHistory(e.ctx, owner.ID)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty history, got %v %v", empty, err)
	}
}
