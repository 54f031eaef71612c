package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/skillswap/backend/internal/directory"
	"github.com/skillswap/backend/internal/logging"
	"github.com/skillswap/backend/internal/models"
	"github.com/skillswap/backend/internal/repositories"
	"github.com/skillswap/backend/internal/storage"
)

const (
	maxSkillLength  = 64
	maxSkills       = 50
	maxBioLength    = 1000
	maxAvatarBytes  = 5 << 20
	avatarFormField = "avatar"
)

// ProfileHandler serves the signed-in member's own profile.
type ProfileHandler struct {
	Users     UserStore
	Directory Directory
	Avatars   AvatarStorage
	NowFunc   func() time.Time
}

type profileView struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullname"`
	Email     string    `json:"email"`
	Skills    []string  `json:"skills"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newProfileView(u models.User) *profileView {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return &profileView{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Skills:    skills,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// Get handles GET /api/v1/profile.
func (h ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.loadCaller(w, r)
	if !ok {
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, newProfileView(user))
}

// AddSkill handles POST /api/v1/profile/skills. Skills already listed are
// left as they are.
func (h ProfileHandler) AddSkill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req struct {
		Skill string `json:"skill"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid skill payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	skill := strings.TrimSpace(req.Skill)
	switch {
	case skill == "":
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "skill is required"})
		return
	case utf8.RuneCountInString(skill) > maxSkillLength:
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "skill is too long"})
		return
	}

	user, ok := h.loadCaller(w, r)
	if !ok {
		return
	}

	if user.HasSkill(skill) {
		respondJSON(ctx, w, http.StatusOK, newProfileView(user))
		return
	}
	if len(user.Skills) >= maxSkills {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "too many skills"})
		return
	}

	user.Skills = append(user.Skills, skill)
	h.save(w, r, user, "skill added")
}

// UpdateBio handles POST /api/v1/profile/bio.
func (h ProfileHandler) UpdateBio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req struct {
		Bio string `json:"bio"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid bio payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	bio := strings.TrimSpace(req.Bio)
	if utf8.RuneCountInString(bio) > maxBioLength {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "bio is too long"})
		return
	}

	user, ok := h.loadCaller(w, r)
	if !ok {
		return
	}

	user.Bio = bio
	h.save(w, r, user, "bio updated")
}

// UploadAvatar handles multipart POST /api/v1/profile/avatar uploads.
func (h ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Avatars == nil {
		respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"error": "avatar uploads are not configured"})
		return
	}

	user, ok := h.loadCaller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+(1<<20))
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(ctx, w, http.StatusRequestEntityTooLarge, map[string]string{"error": "avatar must be 5 MiB or smaller"})
			return
		}
		logger.Warn("invalid avatar upload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "avatar file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		respondJSON(ctx, w, http.StatusRequestEntityTooLarge, map[string]string{"error": "avatar must be 5 MiB or smaller"})
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		logger.Warn("read avatar upload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "avatar file is empty"})
		return
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if _, ok := storage.ImageExtension(contentType); !ok {
		logger.Warn("rejected avatar content type", "contentType", contentType, "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnsupportedMediaType, map[string]string{"error": "avatar must be a PNG, JPEG, GIF or WebP image"})
		return
	}

	location, err := h.Avatars.SaveAvatar(ctx, user.ID, contentType, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		logger.Error("store avatar", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "failed to store avatar"})
		return
	}

	user.AvatarURL = location
	h.save(w, r, user, "avatar updated")
}

// loadCaller resolves the signed-in user, writing the error response when it
// cannot.
func (h ProfileHandler) loadCaller(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil {
		logger.Error("profile dependencies unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "profile service unavailable"})
		return models.User{}, false
	}

	userID := currentUserID(ctx)
	if userID == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "user not logged in"})
		return models.User{}, false
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return models.User{}, false
		}
		logger.Error("load profile", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load profile"})
		return models.User{}, false
	}

	return user, true
}

func (h ProfileHandler) save(w http.ResponseWriter, r *http.Request, user models.User, action string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user.UpdatedAt = h.now()
	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("update profile", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to update profile"})
		return
	}

	if h.Directory != nil {
		h.Directory.Upsert(directory.ProfileFromUser(user))
	}

	logger.Info(action, "userId", user.ID)
	respondJSON(ctx, w, http.StatusOK, newProfileView(user))
}

func (h ProfileHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
