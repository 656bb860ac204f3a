// Package identity decides how a connection obtains its display name.
//
// Two strategies exist. PreAuthenticated resolves the name from a verified
// token before the connection is accepted and keeps it for the connection's
// lifetime. SelfDeclared accepts anonymous connections that later claim and
// drop a name through protocol messages. The server picks one at startup.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Mode names an identity strategy in configuration.
type Mode string

const (
	ModeSelfDeclared     Mode = "self-declared"
	ModePreAuthenticated Mode = "pre-authenticated"
)

// CloseUnauthorized is the websocket close code sent when a connection
// attempt fails token verification.
const CloseUnauthorized = 4001

// ErrUnauthorized is returned when a connection may not attach.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks a bearer token and returns the display name it was
// issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Strategy resolves the identity of an incoming connection.
type Strategy interface {
	Mode() Mode
	// Identify runs before the connection attaches. An empty name with a
	// nil error means the connection starts anonymous.
	Identify(ctx context.Context, r *http.Request) (string, error)
	// SelfDeclared reports whether set-nick and leave are accepted.
	SelfDeclared() bool
}

// New builds the strategy for mode. PreAuthenticated requires a verifier.
func New(mode Mode, verifier Verifier) (Strategy, error) {
	switch mode {
	case ModeSelfDeclared, "":
		return SelfDeclared{}, nil
	case ModePreAuthenticated:
		if verifier == nil {
			return nil, errors.New("pre-authenticated mode requires a token verifier")
		}
		return &PreAuthenticated{verifier: verifier}, nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", mode)
	}
}

// SelfDeclared accepts every connection anonymously.
type SelfDeclared struct{}

// Mode reports ModeSelfDeclared.
func (SelfDeclared) Mode() Mode { return ModeSelfDeclared }

// Identify never fails and leaves the connection unnamed until set-nick.
func (SelfDeclared) Identify(context.Context, *http.Request) (string, error) { return "", nil }

// SelfDeclared reports true: clients name themselves.
func (SelfDeclared) SelfDeclared() bool { return true }

// PreAuthenticated requires a valid token on the connection URL.
type PreAuthenticated struct {
	verifier Verifier
}

// NewPreAuthenticated returns a strategy that checks tokens with verifier.
func NewPreAuthenticated(verifier Verifier) *PreAuthenticated {
	return &PreAuthenticated{verifier: verifier}
}

// Mode reports ModePreAuthenticated.
func (p *PreAuthenticated) Mode() Mode { return ModePreAuthenticated }

// SelfDeclared reports false: names come from the verified token.
func (p *PreAuthenticated) SelfDeclared() bool { return false }

// Identify reads the token from the "token" query parameter, falling back to
// an Authorization bearer header.
func (p *PreAuthenticated) Identify(ctx context.Context, r *http.Request) (string, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	name, err := p.verifier.Verify(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: token carries no name", ErrUnauthorized)
	}
	return name, nil
}

// TokenFromRequest extracts a bearer token from r.
func TokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
