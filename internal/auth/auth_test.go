package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testTokenManager() *TokenManager {
	return NewTokenManager(TokenConfig{
		Secret: "test-secret-key",
		Issuer: "gochat-test",
		TTL:    time.Hour,
	})
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	manager := testTokenManager()

	token, err := manager.Issue("Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	name, err := manager.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "gochat-test", claims.Issuer)
	assert.Equal(t, int64(3600), manager.TTL())
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	manager := testTokenManager()
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := manager.Issue("Alice")
	require.NoError(t, err)

	manager.now = time.Now
	_, err = manager.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	manager := testTokenManager()

	other := NewTokenManager(TokenConfig{Secret: "another-secret", Issuer: "gochat-test", TTL: time.Hour})
	wrongSecret, err := other.Issue("Mallory")
	require.NoError(t, err)

	wrongIssuer, err := NewTokenManager(TokenConfig{Secret: "test-secret-key", Issuer: "elsewhere", TTL: time.Hour}).Issue("Mallory")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Name: "Mallory"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noName, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "gochat-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"alg none":     unsigned,
		"no name":      noName,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := manager.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, hasher.Verify("correct horse", hash))
	assert.False(t, hasher.Verify("wrong horse", hash))

	_, err = hasher.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)

	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher().cost)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Account(ctx, "alice")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, store.PutAccount(ctx, Account{Name: "Alice", PasswordHash: "h"}))

	account, err := store.Account(ctx, "  ALICE ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", account.Name)
	assert.False(t, account.CreatedAt.IsZero())
	assert.NoError(t, store.Close())
}

func TestRedisStore(t *testing.T) {
	redisURL := os.Getenv("GOCHAT_TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("GOCHAT_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, redisURL)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	name := "Test-" + time.Now().Format("150405.000000")
	_, err = store.Account(ctx, name)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, store.PutAccount(ctx, Account{Name: name, PasswordHash: "h"}))
	account, err := store.Account(ctx, strings.ToUpper(name))
	require.NoError(t, err)
	assert.Equal(t, name, account.Name)

	require.NoError(t, store.rdb.Del(ctx, accountKeyPrefix+accountKey(name)).Err())
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url")
	assert.Error(t, err)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)

	store := NewMemoryStore()
	require.NoError(t, Seed(context.Background(), store, []Account{{Name: "Alice", PasswordHash: hash}}))
	return NewService(store, hasher, testTokenManager())
}

func TestServiceLogin(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	token, name, err := service.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	verified, err := testTokenManager().Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", verified)

	_, _, err = service.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login(ctx, "bob", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSeedRejectsIncompleteAccounts(t *testing.T) {
	err := Seed(context.Background(), NewMemoryStore(), []Account{{Name: "nohash"}})
	assert.Error(t, err)
}

func TestLoginHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	handler := NewLoginHandler(newTestService(t), logger)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{name: "valid credentials", method: http.MethodPost, body: `{"username":"alice","password":"s3cret-pass"}`, wantStatus: http.StatusOK},
		{name: "wrong password", method: http.MethodPost, body: `{"username":"alice","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", method: http.MethodPost, body: `{"username":"zed","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "bad body", method: http.MethodPost, body: `{`, wantStatus: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, body: ``, wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/login", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusOK {
				var resp LoginResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, "Alice", resp.Name)
				assert.NotEmpty(t, resp.Token)
				assert.Equal(t, int64(3600), resp.ExpiresIn)
				return
			}

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	assert.NotEmpty(t, hook.AllEntries())
}
