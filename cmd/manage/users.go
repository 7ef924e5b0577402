package main

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"imdb/proj/internal/domain/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// newAdmin builds an active admin account. When password is empty a random
// one is generated and returned so it can be shown once.
func newAdmin(email, username, password string) (*models.User, string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, "", fmt.Errorf("invalid email %q: %w", email, err)
	}
	email = addr.Address
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
		username = strings.ToLower(username)
	}
	var generated string
	if password == "" {
		generated = strings.ReplaceAll(uuid.NewString(), "-", "")
		password = generated
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}
	return &models.User{
		Username:     username,
		Email:        email,
		Role:         models.RoleAdmin,
		IsActive:     true,
		PasswordHash: string(hash),
	}, generated, nil
}

func parseRole(name string) (models.Role, error) {
	if name == "" {
		return models.RoleUser, errors.New("-role is required")
	}
	return models.ParseRole(name)
}
