// Package users manages system user accounts and credential checks.
package users

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/valuation-console/backend/internal/models"
)

var (
	// ErrNotFound means no user exists with the given id or email.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken means another account already uses the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store holds user accounts in memory.
type Store struct {
	users map[string]*models.User
	mu    sync.RWMutex
}

// NewStore creates an empty user store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]*models.User),
	}
}

// Create adds a user. The password is hashed before storage.
func (s *Store) Create(email, name, role, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user

	return copyUser(user), nil
}

// Get returns a user by id.
func (s *Store) Get(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

// GetByEmail returns a user by email (case-insensitive).
func (s *Store) GetByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

// List returns one page of users ordered by creation time, newest first,
// plus the total count. Page numbering starts at 1.
func (s *Store) List(page, perPage int) ([]*models.User, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	s.mu.RLock()
	all := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, copyUser(u))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * perPage
	if start >= total {
		return []*models.User{}, total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return all[start:end], total
}

// Update modifies name, role and optionally email. Empty fields keep
// their current value.
func (s *Store) Update(id, email, name, role string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	if email != "" {
		email = strings.ToLower(strings.TrimSpace(email))
		for otherID, u := range s.users {
			if otherID != id && u.Email == email {
				return nil, ErrEmailTaken
			}
		}
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}
	if role != "" {
		user.Role = role
	}
	user.UpdatedAt = time.Now()

	return copyUser(user), nil
}

// SetPassword replaces a user's password.
func (s *Store) SetPassword(id, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()
	return nil
}

// Delete removes a user.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// Authenticate checks an email/password pair and returns the user.
// Unknown email and wrong password return the same error.
func (s *Store) Authenticate(email, password string) (*models.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SeedAdmin creates the initial admin account if no user has the email yet.
func (s *Store) SeedAdmin(email, name, password string) (*models.User, error) {
	if _, err := s.GetByEmail(email); err == nil {
		return nil, nil
	}
	return s.Create(email, name, models.RoleAdmin, password)
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}
