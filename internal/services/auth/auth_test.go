package authservice

import (
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zanzhit/capture_studio/internal/domain/constants"
	"github.com/zanzhit/capture_studio/internal/domain/errs"
	"github.com/zanzhit/capture_studio/internal/domain/models"
)

type fakeUserStore struct {
	users  map[string]models.User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User), nextID: 1}
}

func (s *fakeUserStore) SaveUser(email, userType string, passHash []byte) (string, error) {
	if _, ok := s.users[email]; ok {
		return "", errs.ErrUserExists
	}

	id := s.nextID
	s.nextID++

	s.users[email] = models.User{
		Id:       id,
		Email:    email,
		UserType: userType,
		PassHash: passHash,
	}

	return strconv.Itoa(id), nil
}

func (s *fakeUserStore) User(email string) (models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return models.User{}, errs.ErrInvalidCredentials
	}

	return user, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newService(store *fakeUserStore) *AuthService {
	return New(testLogger(), store, store, time.Hour, "test-secret")
}

func TestRegister_RejectsUnknownUserType(t *testing.T) {
	svc := newService(newFakeUserStore())

	_, err := svc.RegisterNewUser("op@studio.local", "pass", "operator")
	require.ErrorIs(t, err, errs.ErrUserType)
}

func TestLogin_TokenCarriesClaims(t *testing.T) {
	store := newFakeUserStore()
	svc := newService(store)

	id, err := svc.RegisterNewUser("op@studio.local", "pass", constants.Admin)
	require.NoError(t, err)
	require.Equal(t, "1", id)

	tokenString, err := svc.Login("op@studio.local", "pass")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)

	assert.Equal(t, float64(1), claims["uid"])
	assert.Equal(t, "op@studio.local", claims["email"])
	assert.Equal(t, constants.Admin, claims["user_type"])
	assert.Greater(t, claims["exp"].(float64), float64(time.Now().Unix()))
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newService(store)

	_, err := svc.RegisterNewUser("op@studio.local", "pass", constants.User)
	require.NoError(t, err)

	_, err = svc.Login("op@studio.local", "wrong")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newService(newFakeUserStore())

	_, err := svc.Login("nobody@studio.local", "pass")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestRegister_HashesPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newService(store)

	_, err := svc.RegisterNewUser("op@studio.local", "pass", constants.User)
	require.NoError(t, err)

	user := store.users["op@studio.local"]
	assert.NotEqual(t, []byte("pass"), user.PassHash)
	require.NoError(t, bcrypt.CompareHashAndPassword(user.PassHash, []byte("pass")))
}
