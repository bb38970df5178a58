package services

import (
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localnerve/recipe-board/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidatorRoundTrip(t *testing.T) {
	v := NewJWTValidator("test-secret")
	token, err := v.IssueToken("user_1", "cook@example.com", time.Hour)
	require.NoError(t, err)

	p, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, &Principal{ID: "user_1", Email: "cook@example.com"}, p)
}

func TestJWTValidatorRejects(t *testing.T) {
	v := NewJWTValidator("test-secret")

	expired, err := v.IssueToken("user_1", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewJWTValidator("other-secret").IssueToken("user_1", "", time.Hour)
	require.NoError(t, err)
	_, err = v.ValidateToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := v.IssueToken("", "", time.Hour)
	require.NoError(t, err)
	_, err = v.ValidateToken(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user_1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = v.ValidateToken(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user_1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = v.ValidateToken(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenValidator(t *testing.T) {
	v, err := NewTokenValidator(&config.Config{AuthMode: config.AuthModeJWT, JWTSecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &JWTValidator{}, v)

	v, err = NewTokenValidator(&config.Config{AuthMode: config.AuthModeAuthorizer, AuthzURL: "http://127.0.0.1:1", AuthzClientID: "c"})
	require.NoError(t, err)
	az, ok := v.(*AuthorizerValidator)
	require.True(t, ok)
	assert.False(t, az.Initialized())

	_, err = NewTokenValidator(&config.Config{AuthMode: "cookie"})
	assert.Error(t, err)
}

func TestAuthorizerValidatorUnreachable(t *testing.T) {
	v := NewAuthorizerValidator("http://127.0.0.1:1", "client")
	_, err := v.ValidateToken("token")
	assert.ErrorContains(t, err, "authorizer ping failed")
	assert.False(t, v.Initialized())

	// within the retry interval the last failure is returned without dialing
	_, again := v.ValidateToken("token")
	assert.Equal(t, err, again)
}

func TestAuthorizerValidatorRetriesAfterFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	v := NewAuthorizerValidator("http://"+addr, "client")
	v.retry = 0

	_, err = v.ValidateToken("token")
	require.ErrorContains(t, err, "authorizer ping failed")
	assert.False(t, v.Initialized())

	ln, err = net.Listen("tcp", addr)
	require.NoError(t, err)
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid token"}],"data":null}`))
	}))
	srv.Listener.Close()
	srv.Listener = ln
	srv.Start()
	defer srv.Close()

	_, err = v.ValidateToken("token")
	if err != nil {
		assert.NotContains(t, err.Error(), "authorizer ping failed")
	}
}

func TestAuthorizerValidatorInitializedConcurrent(t *testing.T) {
	v := NewAuthorizerValidator("http://127.0.0.1:1", "client")
	v.retry = 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = v.ValidateToken("token")
		}()
		go func() {
			defer wg.Done()
			assert.False(t, v.Initialized())
		}()
	}
	wg.Wait()
}
