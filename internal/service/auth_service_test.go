package service

import (
	"context"
	"sync"
	"testing"

	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "alice", registered.User.Nickname)

	_, err = env.auth.Register(ctx, RegisterRequest{Username: "alice", Password: "secret2"}, "127.0.0.1")
	assert.ErrorIs(t, err, xe.ErrAccountAlreadyUsed)

	resp, err := env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret1"}, "127.0.0.1")
	require.NoError(t, err)

	claims, err := env.auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	_, err = env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"}, "127.0.0.1")
	assert.ErrorIs(t, err, xe.ErrIncorrectPassword)

	_, err = env.auth.Login(ctx, LoginRequest{Username: "bob", Password: "secret1"}, "127.0.0.1")
	assert.ErrorIs(t, err, xe.ErrIncorrectPassword)
}

func TestAuthLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.auth.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, "")
	require.NoError(t, err)
	second, err := env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret1"}, "")
	require.NoError(t, err)

	claims, err := env.auth.ValidateToken(first.Token)
	require.NoError(t, err)
	env.auth.Logout(claims)

	_, err = env.auth.ValidateToken(first.Token)
	assert.ErrorIs(t, err, xe.ErrInvalidToken)

	// 其他令牌不受影响
	_, err = env.auth.ValidateToken(second.Token)
	assert.NoError(t, err)
}

func TestAuthRejectsForeignToken(t *testing.T) {
	env := newTestEnv(t)
	other := NewAuthService(env.auth.logger, env.db, "another-secret")

	resp, err := other.Register(context.Background(), RegisterRequest{Username: "mallory", Password: "secret1"}, "")
	require.NoError(t, err)

	_, err = env.auth.ValidateToken(resp.Token)
	assert.Error(t, err)
}

func TestAuthChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, "")
	require.NoError(t, err)

	err = env.auth.ChangePassword(ctx, resp.User.ID, "bad", "secret2")
	assert.ErrorIs(t, err, xe.ErrIncorrectOldPass)

	require.NoError(t, env.auth.ChangePassword(ctx, resp.User.ID, "secret1", "secret2"))
	_, err = env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret2"}, "")
	assert.NoError(t, err)

	me, err := env.auth.GetCurrentUser(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	_, err = env.auth.GetCurrentUser(ctx, "missing")
	assert.ErrorIs(t, err, xe.ErrNotFound)
}

func TestAuthRegisterConcurrentSameUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.auth.Register(ctx, RegisterRequest{Username: "carol", Password: "secret1"}, "127.0.0.1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, xe.ErrAccountAlreadyUsed)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, env.db.Table("users").Where("username = ?", "carol").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
