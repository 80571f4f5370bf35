package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/model"
	"storefront/internal/storage"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (m *memUsers) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = map[string]model.User{}
	}
	if _, ok := m.users[u.Email]; ok {
		return storage.ErrDuplicate
	}
	u.ID = int64(len(m.users) + 1)
	u.CreatedAt = testNow
	m.users[u.Email] = *u
	return nil
}

func (m *memUsers) FindUserByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memUsers) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func newTestAuth() (*AuthService, *memUsers) {
	users := &memUsers{}
	svc := NewAuthService(users)
	svc.cost = bcrypt.MinCost
	return svc, users
}

func TestAuth_RegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestAuth()

	u, err := svc.Register(context.Background(), "Asha", " Asha@Example.com ", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)

	got, err := svc.Authenticate(context.Background(), "ASHA@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "asha@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_RegisterRejects(t *testing.T) {
	svc, _ := newTestAuth()

	_, err := svc.Register(context.Background(), "A", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "B", "A@example.com", "pw")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(context.Background(), "C", "", "pw")
	requireKind(t, err, KindValidation)
}

func TestAuth_EnsureAdmin(t *testing.T) {
	svc, users := newTestAuth()

	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@shop.test", "adminpw"))
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@shop.test", "other"))
	require.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))

	assert.Len(t, users.users, 1)
	admin, err := svc.Authenticate(context.Background(), "admin@shop.test", "adminpw")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
}

func TestAuth_CurrentUser(t *testing.T) {
	svc, _ := newTestAuth()
	u, err := svc.Register(context.Background(), "Asha", "asha@example.com", "pw123456")
	require.NoError(t, err)

	got, err := svc.CurrentUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", got.Email)
	assert.Equal(t, model.RoleUser, got.Role)

	_, err = svc.CurrentUser(context.Background(), 999)
	requireKind(t, err, KindNotFound)
}
