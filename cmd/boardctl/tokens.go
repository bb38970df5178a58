package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// commandTokenSource runs an external command for every token. The command
// prints either a bare token or an OAuth2 token response.
type commandTokenSource struct {
	name string
	args []string
}

func newCommandTokenSource(command string) (*commandTokenSource, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty token command")
	}
	return &commandTokenSource{name: fields[0], args: fields[1:]}, nil
}

// Token implements oauth2.TokenSource
func (s *commandTokenSource) Token() (*oauth2.Token, error) {
	return s.run(context.Background())
}

func (s *commandTokenSource) refresh(ctx context.Context) (*oauth2.Token, error) {
	return s.run(ctx)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *commandTokenSource) run(ctx context.Context) (*oauth2.Token, error) {
	out, err := exec.CommandContext(ctx, s.name, s.args...).Output()
	if err != nil {
		return nil, fmt.Errorf("token command %s: %w", s.name, err)
	}
	raw := strings.TrimSpace(string(out))
	if raw == "" {
		return nil, fmt.Errorf("token command %s printed nothing", s.name)
	}
	if !strings.HasPrefix(raw, "{") {
		return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
	}

	var resp tokenResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("token command %s: %w", s.name, err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("token command %s: no access_token", s.name)
	}
	tok := &oauth2.Token{AccessToken: resp.AccessToken, TokenType: resp.TokenType}
	if resp.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tok, nil
}
