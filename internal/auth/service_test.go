package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)

	// One connection: each in-memory sqlite connection is its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&User{}, &Session{}))
	return db
}

func testService(t *testing.T) *Service {
	t.Helper()
	return NewService(testDB(t), NewJWT("test-secret"), NewBroadcaster())
}

func TestSignUpThenSignIn(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	u, token, err := svc.SignUp(ctx, "Ana@Example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email, "email is lowercased")
	require.NotEmpty(t, token)

	claims, err := svc.JWT.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, _, err = svc.SignUp(ctx, "ana@example.com", "different")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = svc.SignIn(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, token, err = svc.SignIn(ctx, "ana@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestSignOutPublishesRevocation(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ch, cancel := svc.Events.Subscribe()
	defer cancel()

	u, _, err := svc.SignUp(ctx, "bo@example.com", "hunter22")
	require.NoError(t, err)

	in := recv(t, ch)
	require.Equal(t, SignedIn, in.Type)
	require.Equal(t, u.ID, in.UserID)

	require.NoError(t, svc.SignOut(ctx, in.SessionID))

	out := recv(t, ch)
	assert.Equal(t, SignedOut, out.Type)
	assert.Equal(t, u.ID, out.UserID, "revocation event carries the owner")
	assert.Equal(t, in.SessionID, out.SessionID)

	sess, err := svc.GetSession(ctx, in.SessionID)
	require.NoError(t, err)
	assert.True(t, sess.Revoked())

	assert.ErrorIs(t, svc.SignOut(ctx, in.SessionID), ErrSessionNotFound, "second sign-out")
	assert.ErrorIs(t, svc.SignOut(ctx, uuid.New()), ErrSessionNotFound, "unknown session")
}

func TestSignInOAuthUpsertsByEmail(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	u1, _, err := svc.SignInOAuth(ctx, "cy@example.com", "Cy")
	require.NoError(t, err)
	assert.Equal(t, "Cy", u1.Name)
	assert.Empty(t, u1.PasswordHash)

	u2, token, err := svc.SignInOAuth(ctx, "CY@example.com", "Cy Ridley")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID, "same account on repeat sign-in")
	assert.Equal(t, "Cy Ridley", u2.Name)
	assert.NotEmpty(t, token)

	_, _, err = svc.SignInOAuth(ctx, "", "Nameless")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOpenSessionRowMatchesToken(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	u, token, err := svc.SignUp(ctx, "dee@example.com", "hunter22")
	require.NoError(t, err)

	claims, err := svc.JWT.Verify(token)
	require.NoError(t, err)

	sess, err := svc.GetSession(ctx, claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)
	assert.False(t, sess.Revoked())
	assert.WithinDuration(t, time.Now().Add(tokenTTL), sess.ExpiresAt, time.Minute)
}
