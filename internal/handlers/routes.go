package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Directory: deps.Directory}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Directory: deps.Directory, Limiter: deps.AuthLimiter}
	profile := ProfileHandler{Users: deps.Users, Directory: deps.Directory, Avatars: deps.Avatars}
	directory := DirectoryHandler{Directory: deps.Directory}
	friends := FriendHandler{Relationships: deps.Relationships, Events: deps.Events, Limiter: deps.FriendLimiter}
	chat := ChatHandler{Chat: deps.Chat, Directory: deps.Directory}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/profile", profile.Get)
	mux.HandleFunc("/api/v1/profile/skills", profile.AddSkill)
	mux.HandleFunc("/api/v1/profile/bio", profile.UpdateBio)
	mux.HandleFunc("/api/v1/profile/avatar", profile.UploadAvatar)
	mux.HandleFunc("/api/v1/skills", directory.List)
	mux.HandleFunc("/api/v1/users/{userID}", directory.GetUser)
	mux.HandleFunc("/api/v1/friends/request", friends.SendRequest)
	mux.HandleFunc("/api/v1/friends/respond", friends.Respond)
	mux.HandleFunc("/api/v1/friends/{userID}", friends.Data)
	mux.HandleFunc("/api/v1/chat", chat.Connect)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Directory     Directory
	Relationships RelationshipStore
	Events        EventSink
	Avatars       AvatarStorage
	Chat          ChatServer

	AuthLimiter   RateLimiter
	FriendLimiter RateLimiter
}
