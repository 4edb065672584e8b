// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_auth_service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/echonotes/web-backend/config"
	internal_entity "github.com/echonotes/web-backend/internal/entity"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
)

func newTestService(t *testing.T, secret string) AuthService {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-auth"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	postgres := connectors.NewGormConnector(db, logger)
	if err := postgres.Migrate(&internal_entity.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	// nil redis: verification runs without the cache.
	return NewAuthService(&config.AppConfig{Secret: secret}, logger, postgres, nil)
}

func TestSignupLoginVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t, "test-secret")
	ctx := context.Background()

	signup, err := svc.Signup(ctx, "someone@example.com", "s3cret-pass", "Someone")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	assert.NotEmpty(t, signup.Token)
	assert.NotZero(t, signup.User.Id)
	assert.NotEqual(t, "s3cret-pass", signup.User.Password)

	login, err := svc.Login(ctx, "someone@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	assert.Equal(t, signup.User.Id, login.User.Id)

	user, err := svc.Verify(ctx, login.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	assert.Equal(t, signup.User.Id, user.Id)
	assert.Equal(t, "someone@example.com", user.Email)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t, "test-secret")
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "someone@example.com", "s3cret-pass", "Someone"); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	_, err := svc.Signup(ctx, "someone@example.com", "another-pass", "Impostor")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t, "test-secret")
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "someone@example.com", "s3cret-pass", "Someone"); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	_, err := svc.Login(ctx, "someone@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsGarbageAndForeignTokens(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(t, "test-secret")
	_, err := svc.Verify(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A token signed under a different secret must not verify.
	other := newTestService(t, "different-secret")
	signup, err := other.Signup(ctx, "someone@example.com", "s3cret-pass", "Someone")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	_, err = svc.Verify(ctx, signup.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
