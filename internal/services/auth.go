package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localnerve/authorizer-go"
	"github.com/localnerve/recipe-board/internal/config"
	"github.com/localnerve/recipe-board/internal/utils"
)

// ErrInvalidToken is returned for tokens that fail validation
var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller
type Principal struct {
	ID    string
	Email string
}

// TokenValidator turns a bearer token into a Principal
type TokenValidator interface {
	ValidateToken(token string) (*Principal, error)
}

// NewTokenValidator picks the validator for the configured AUTH_MODE
func NewTokenValidator(cfg *config.Config) (TokenValidator, error) {
	switch cfg.AuthMode {
	case config.AuthModeAuthorizer:
		return NewAuthorizerValidator(cfg.AuthzURL, cfg.AuthzClientID), nil
	case config.AuthModeJWT:
		return NewJWTValidator(cfg.JWTSecret), nil
	}
	return nil, fmt.Errorf("unsupported auth mode: %s", cfg.AuthMode)
}

// AuthorizerInitRetry is the least time between two attempts to reach the
// Authorizer after a failed one
const AuthorizerInitRetry = 2 * time.Second

// AuthorizerValidator validates access tokens with an Authorizer service.
// The client is created on first use; a failed creation is retried by later
// calls, at most once per retry interval.
type AuthorizerValidator struct {
	url      string
	clientID string
	retry    time.Duration

	mu        sync.Mutex
	client    *authorizer.AuthorizerClient
	lastErr   error
	lastTried time.Time
}

// NewAuthorizerValidator creates a validator for the Authorizer at url
func NewAuthorizerValidator(url, clientID string) *AuthorizerValidator {
	return &AuthorizerValidator{url: url, clientID: clientID, retry: AuthorizerInitRetry}
}

func (v *AuthorizerValidator) init() (*authorizer.AuthorizerClient, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.client != nil {
		return v.client, nil
	}
	if v.lastErr != nil && time.Since(v.lastTried) < v.retry {
		return nil, v.lastErr
	}

	v.lastTried = time.Now()
	if err := utils.PingAuthorizer(v.url); err != nil {
		v.lastErr = fmt.Errorf("authorizer ping failed: %w", err)
		return nil, v.lastErr
	}

	log.Printf("Initializing Authorizer: authorizerURL=%s, clientID=%s", v.url, v.clientID)

	client, err := authorizer.NewAuthorizerClient(v.clientID, v.url, "", nil)
	if err != nil {
		v.lastErr = fmt.Errorf("failed to create authorizer client: %w", err)
		return nil, v.lastErr
	}
	v.client, v.lastErr = client, nil
	return client, nil
}

// Initialized reports whether the client was created successfully
func (v *AuthorizerValidator) Initialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.client != nil
}

// ValidateToken validates an access token and returns its subject
func (v *AuthorizerValidator) ValidateToken(token string) (*Principal, error) {
	client, err := v.init()
	if err != nil {
		return nil, err
	}

	res, err := client.ValidateJWTToken(&authorizer.ValidateJWTTokenInput{
		TokenType: authorizer.TokenTypeAccessToken,
		Token:     token,
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if res == nil || !res.IsValid {
		return nil, ErrInvalidToken
	}

	sub, _ := res.Claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	email, _ := res.Claims["email"].(string)
	return &Principal{ID: sub, Email: email}, nil
}

// JWTValidator validates HS256 tokens signed with a shared secret
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a validator for tokens signed with secret
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

type boardClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ValidateToken validates signature, expiry and subject
func (v *JWTValidator) ValidateToken(token string) (*Principal, error) {
	claims := &boardClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return &Principal{ID: claims.Subject, Email: claims.Email}, nil
}

// IssueToken signs a token for subject that JWTValidator accepts
func (v *JWTValidator) IssueToken(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := boardClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
