package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/skillswap/backend/internal/models"
)

// FileUserRepository keeps user profiles in a single JSON document on disk.
// Every write rewrites the whole file through a temporary file and rename so
// readers never observe a partially written document.
type FileUserRepository struct {
	path string

	mu sync.Mutex
}

// NewFileUserRepository returns a repository persisting to path. The file is
// created on first write; a missing or empty file reads as no users.
func NewFileUserRepository(path string) *FileUserRepository {
	return &FileUserRepository{path: path}
}

// Create appends a new user, rejecting duplicate ids or emails.
func (r *FileUserRepository) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	user.Email = normalizeEmail(user.Email)
	for _, existing := range users {
		if existing.ID == user.ID || normalizeEmail(existing.Email) == user.Email {
			return ErrConflict
		}
	}

	user.Skills = nonNil(user.Skills)
	return r.save(append(users, user))
}

func (r *FileUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	email = normalizeEmail(email)
	return r.find(func(u models.User) bool { return normalizeEmail(u.Email) == email })
}

func (r *FileUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

// Update replaces the stored user with the same id.
func (r *FileUserRepository) Update(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	user.Email = normalizeEmail(user.Email)
	idx := -1
	for i, existing := range users {
		switch {
		case existing.ID == user.ID:
			idx = i
		case normalizeEmail(existing.Email) == user.Email:
			return ErrConflict
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	user.Skills = nonNil(user.Skills)
	users[idx] = user
	return r.save(users)
}

func (r *FileUserRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileUserRepository) find(match func(models.User) bool) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *FileUserRepository) load() ([]models.User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read users file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode users file: %w", err)
	}
	return users, nil
}

func (r *FileUserRepository) save(users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	data, err := json.MarshalIndent(users, "", "    ")
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create users directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("create temp users file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp users file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp users file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}
	return nil
}

var _ UserRepository = (*FileUserRepository)(nil)
