package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// TweetHandler manages channel tweets.
type TweetHandler struct {
	Tweets *services.TweetService
}

type contentRequest struct {
	Content string `json:"content"`
}

// Create handles POST /tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var req contentRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	tweet, err := h.Tweets.Create(r.Context(), user, req.Content)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, tweet, "Tweet created successfully")
}

// UserTweets handles GET /tweets/user/{userId}.
func (h TweetHandler) UserTweets(w http.ResponseWriter, r *http.Request) {
	user, err := pathID(r, "userId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	tweets, err := h.Tweets.UserTweets(r.Context(), user, optionalRequester(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tweets, "Tweets fetched successfully")
}

// Update handles PATCH /tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var req contentRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	tweet, err := h.Tweets.Update(r.Context(), user, tweetID, req.Content)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tweet, "Tweet updated successfully")
}

// Delete handles DELETE /tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.Tweets.Delete(r.Context(), user, tweetID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, nil, "Tweet deleted successfully")
}
