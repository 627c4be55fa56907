package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	users map[string]User // by id
}

func newMemStore() *memStore { return &memStore{users: map[string]User{}} }

func (m *memStore) Create(_ context.Context, username *string, email, passwordHash string) (User, error) {
	u := User{ID: uuid.NewString(), Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) Exists(_ context.Context, username *string, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
		if username != nil && u.Username != nil && *u.Username == *username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memStore) FindByID(_ context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func newTestService(ttl time.Duration) *Service {
	return &Service{
		Users:  newMemStore(),
		Tokens: &TokenIssuer{Secret: []byte("test-secret"), TTL: ttl},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(time.Hour)
	ctx := context.Background()

	u, err := svc.Register(ctx, nil, "reader@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "hunter22", u.PasswordHash)

	token, err := svc.Login(ctx, "reader@example.com", "hunter22")
	require.NoError(t, err)

	userID, err := svc.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	me, err := svc.Me(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", me.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, nil, "reader@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Register(ctx, nil, "reader@example.com", "other-pass")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, nil, "reader@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "reader@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// unknown email looks the same as a wrong password
	_, err = svc.Login(ctx, "ghost@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTestService(-time.Minute)
	ctx := context.Background()

	u, err := svc.Register(ctx, nil, "reader@example.com", "hunter22")
	require.NoError(t, err)

	token, err := svc.Tokens.Issue(u.ID)
	require.NoError(t, err)

	_, err = svc.Tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	issuer := &TokenIssuer{Secret: []byte("secret-a"), TTL: time.Hour}
	other := &TokenIssuer{Secret: []byte("secret-b"), TTL: time.Hour}

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
