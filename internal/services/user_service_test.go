package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"myduid/internal/core"
)

func TestUserService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, core.RegistrationInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))

	_, err = f.users.Register(ctx, core.RegistrationInput{Name: "Ada 2", Email: "ada@example.com", Password: "secret2"})
	require.ErrorIs(t, err, core.ErrEmailTaken)
}

func TestNewUserServiceClampsCost(t *testing.T) {
	f := newFixture(t)
	s := NewUserService(Deps{Store: f.store}, 99)
	assert.Equal(t, bcrypt.DefaultCost, s.cost)
}
