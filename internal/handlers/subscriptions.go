package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/services"
)

// SubscriptionHandler manages channel subscriptions.
type SubscriptionHandler struct {
	Subscriptions *services.SubscriptionService
}

type subscriptionStatus struct {
	Subscribed bool `json:"subscribed"`
}

// Toggle handles POST /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, err := requester(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	channel, err := pathID(r, "channelId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	subscribed, err := h.Subscriptions.Toggle(r.Context(), user, channel)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	response.JSON(w, r, http.StatusOK, subscriptionStatus{Subscribed: subscribed}, message)
}

// Subscribers handles GET /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	channel, err := pathID(r, "channelId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	subscribers, err := h.Subscriptions.Subscribers(r.Context(), channel)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, subscribers, "Subscribers fetched successfully")
}

// SubscribedChannels handles GET /subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	subscriber, err := pathID(r, "subscriberId")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	channels, err := h.Subscriptions.SubscribedChannels(r.Context(), subscriber)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, channels, "Subscribed channels fetched successfully")
}
