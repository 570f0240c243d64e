package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Services services.Services
	Tokens   middleware.AccessTokenParser
	Logger   *slog.Logger
	Database Pinger

	// AuthLimiter throttles login and registration per client IP. Nil
	// disables it.
	AuthLimiter middleware.RateLimiter
	// RateLimitPerMinute bounds all API requests per client IP. Zero
	// disables it.
	RateLimitPerMinute int
	CORSOrigins        []string

	MaxUploadBytes int64
	SecureCookies  bool
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

// NewRouter builds the HTTP handler serving the /api/v1 surface and /metrics.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	users := UserHandler{
		Users:          deps.Services.Users,
		MaxUploadBytes: deps.MaxUploadBytes,
		SecureCookies:  deps.SecureCookies,
		AccessTTL:      deps.AccessTTL,
		RefreshTTL:     deps.RefreshTTL,
	}
	videos := VideoHandler{Videos: deps.Services.Videos, MaxUploadBytes: deps.MaxUploadBytes}
	likes := LikeHandler{Likes: deps.Services.Likes}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Services.Subscriptions}
	tweets := TweetHandler{Tweets: deps.Services.Tweets}
	comments := CommentHandler{Comments: deps.Services.Comments}
	playlists := PlaylistHandler{Playlists: deps.Services.Playlists}
	dashboard := DashboardHandler{Dashboard: deps.Services.Dashboard}
	health := HealthHandler{Database: deps.Database}

	requireAuth := middleware.RequireAuth(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)
	authLimit := func(next http.Handler) http.Handler { return next }
	if deps.AuthLimiter != nil {
		authLimit = middleware.RateLimit(deps.AuthLimiter, "auth")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if deps.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				deps.RateLimitPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					response.Fail(w, r, http.StatusTooManyRequests, "too many requests")
				}),
			))
		}

		r.Get("/healthcheck", health.Handle)

		r.Route("/users", func(r chi.Router) {
			r.With(authLimit).Post("/register", users.Register)
			r.With(authLimit).Post("/login", users.Login)
			r.Post("/refresh-token", users.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", users.Logout)
				r.Post("/change-password", users.ChangePassword)
				r.Get("/current-user", users.CurrentUser)
				r.Patch("/update-account", users.UpdateAccount)
				r.Patch("/avatar", users.UpdateAvatar)
				r.Patch("/cover-image", users.UpdateCoverImage)
				r.Get("/c/{username}", users.ChannelProfile)
				r.Get("/history", users.WatchHistory)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.With(optionalAuth).Get("/", videos.List)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", videos.Publish)
				r.Get("/{videoId}", videos.Detail)
				r.Patch("/{videoId}", videos.Update)
				r.Delete("/{videoId}", videos.Delete)
				r.Patch("/toggle/publish/{videoId}", videos.TogglePublish)
			})
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/toggle/v/{videoId}", likes.ToggleVideo)
			r.Post("/toggle/c/{commentId}", likes.ToggleComment)
			r.Post("/toggle/t/{tweetId}", likes.ToggleTweet)
			r.Get("/videos", likes.LikedVideos)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/c/{channelId}", subscriptions.Toggle)
			r.Get("/c/{channelId}", subscriptions.Subscribers)
			r.Get("/u/{subscriberId}", subscriptions.SubscribedChannels)
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", tweets.Create)
			r.Get("/user/{userId}", tweets.UserTweets)
			r.Patch("/{tweetId}", tweets.Update)
			r.Delete("/{tweetId}", tweets.Delete)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/{videoId}", comments.VideoComments)
			r.Post("/{videoId}", comments.Add)
			r.Patch("/c/{commentId}", comments.Update)
			r.Delete("/c/{commentId}", comments.Delete)
		})

		r.Route("/playlist", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", playlists.Create)
			r.Get("/user/{userId}", playlists.UserPlaylists)
			r.Patch("/add/{videoId}/{playlistId}", playlists.AddVideo)
			r.Patch("/remove/{videoId}/{playlistId}", playlists.RemoveVideo)
			r.Get("/{playlistId}", playlists.Get)
			r.Patch("/{playlistId}", playlists.Update)
			r.Delete("/{playlistId}", playlists.Delete)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/stats", dashboard.Stats)
			r.Get("/videos", dashboard.Videos)
		})
	})

	return r
}
