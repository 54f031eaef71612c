package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/skillswap/backend/internal/events"
	"github.com/skillswap/backend/internal/logging"
	"github.com/skillswap/backend/internal/relationships"
)

// FriendHandler provides friend request and listing endpoints.
type FriendHandler struct {
	Relationships RelationshipStore
	Events        EventSink
	Limiter       RateLimiter
	NowFunc       func() time.Time
}

// userRef accepts member ids sent either as JSON strings or numbers; the
// catalog ids are numeric in older clients.
type userRef string

func (u *userRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*u = userRef(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or number")
	}
	*u = userRef(n.String())
	return nil
}

type sendRequestBody struct {
	ToUser userRef `json:"to_user"`
}

type respondRequestBody struct {
	FromUser userRef `json:"from_user"`
	Accept   bool    `json:"accept"`
}

type friendDataResponse struct {
	FriendRequests []string `json:"friend_requests"`
	Friends        []string `json:"friends"`
}

// SendRequest handles POST /api/v1/friends/request.
func (h FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "friends.send_request")
	defer span.End()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, scopeFriendRequest) {
		span.SetAttributes("outcome", "rate_limited")
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"status": "too many requests"})
		return
	}

	if h.Relationships == nil {
		logger.Error("relationship store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend service unavailable"})
		return
	}

	callerID := currentUserID(ctx)
	if callerID == "" {
		h.respondStatus(ctx, w, span, 0, relationships.ErrUnauthenticated)
		return
	}

	var req sendRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid friend request payload", "error", err)
		span.SetAttributes("outcome", "invalid_body")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	toUser := string(req.ToUser)
	span.SetAttributes("from_user", callerID, "to_user", toUser)

	status, err := h.Relationships.SendRequest(callerID, toUser)
	if err == nil {
		h.publish(ctx, events.TypeRequestSent, callerID, toUser)
	}
	h.respondStatus(ctx, w, span, status, err)
}

// Respond handles POST /api/v1/friends/respond.
func (h FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "friends.respond")
	defer span.End()
	logger := logging.FromContext(ctx)

	if h.Relationships == nil {
		logger.Error("relationship store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend service unavailable"})
		return
	}

	callerID := currentUserID(ctx)
	if callerID == "" {
		h.respondStatus(ctx, w, span, 0, relationships.ErrUnauthenticated)
		return
	}

	var req respondRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid friend response payload", "error", err)
		span.SetAttributes("outcome", "invalid_body")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fromUser := string(req.FromUser)
	span.SetAttributes("from_user", fromUser, "to_user", callerID, "accept", req.Accept)

	status, err := h.Relationships.Respond(callerID, fromUser, req.Accept)
	if err == nil {
		eventType := events.TypeRequestRejected
		if status == relationships.StatusAccepted {
			eventType = events.TypeRequestAccepted
		}
		h.publish(ctx, eventType, fromUser, callerID)
	}
	h.respondStatus(ctx, w, span, status, err)
}

// Data handles GET /api/v1/friends/{userID}.
func (h FriendHandler) Data(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if h.Relationships == nil {
		logging.FromContext(ctx).Error("relationship store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend service unavailable"})
		return
	}

	snapshot := h.Relationships.Query(strings.TrimSpace(r.PathValue("userID")))
	respondJSON(ctx, w, http.StatusOK, friendDataResponse{
		FriendRequests: snapshot.PendingIncoming,
		Friends:        snapshot.Friends,
	})
}

func (h FriendHandler) respondStatus(ctx context.Context, w http.ResponseWriter, span *logging.Span, status relationships.Status, err error) {
	code, text := friendStatus(status, err)
	span.SetAttributes("outcome", text, "status", code)
	respondJSON(ctx, w, code, map[string]string{"status": text})
}

// friendStatus maps a relationship outcome to its HTTP status and body text.
func friendStatus(status relationships.Status, err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, status.String()
	case errors.Is(err, relationships.ErrUnauthenticated):
		return http.StatusUnauthorized, "user not logged in"
	case errors.Is(err, relationships.ErrSelfReference):
		return http.StatusBadRequest, "cannot send request to yourself"
	case errors.Is(err, relationships.ErrUnknownUser):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, relationships.ErrAlreadyFriends):
		return http.StatusBadRequest, "already friends"
	case errors.Is(err, relationships.ErrDuplicateRequest):
		return http.StatusBadRequest, "request already sent"
	case errors.Is(err, relationships.ErrRequestNotFound):
		return http.StatusNotFound, "no request found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// publish hands the event to the sink. Failures are logged only; the friend
// transition has already happened.
func (h FriendHandler) publish(ctx context.Context, eventType events.Type, from, to string) {
	if h.Events == nil {
		return
	}

	event := events.Event{Type: eventType, From: from, To: to, OccurredAt: h.now()}
	if err := h.Events.Enqueue(context.WithoutCancel(ctx), event); err != nil {
		logging.FromContext(ctx).Warn("enqueue friend event", "type", string(eventType), "error", err)
	}
}

func (h FriendHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
