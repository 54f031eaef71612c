package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/skillswap/backend/internal/chat"
	"github.com/skillswap/backend/internal/events"
	"github.com/skillswap/backend/internal/models"
	"github.com/skillswap/backend/internal/relationships"
)

// UserStore captures the persistence operations required by the auth and profile handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// SessionManager issues, refreshes and revokes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// Directory lists the members that can be befriended.
type Directory interface {
	Get(id string) (models.Profile, bool)
	List() []models.Profile
	Upsert(profile models.Profile)
	Len() int
}

// RelationshipStore tracks pending requests and confirmed friendships.
type RelationshipStore interface {
	SendRequest(callerID, toUser string) (relationships.Status, error)
	Respond(callerID, fromUser string, accept bool) (relationships.Status, error)
	Query(userID string) relationships.Snapshot
}

// EventSink receives friend events for asynchronous publishing.
type EventSink interface {
	Enqueue(ctx context.Context, event events.Event) error
}

// AvatarStorage persists uploaded profile pictures.
type AvatarStorage interface {
	SaveAvatar(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
}

// ChatServer joins an upgraded connection to the chat room.
type ChatServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, participant chat.Participant) error
}
