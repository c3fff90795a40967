package identity

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"
)

// Rejection reasons surfaced to the client as the connection error string.
var (
	ErrNoToken      = errors.New("No Token")
	ErrInvalidToken = errors.New("Invalid token")
	ErrAuth         = errors.New("Authentication error")
)

const verifyTimeout = 10 * time.Second

// Gate authenticates a realtime connection attempt exactly once, during the
// handshake. All events after acceptance trust the identity bound here.
type Gate struct {
	verifier Verifier
}

// NewGate constructs a Gate over the given verifier.
func NewGate(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authenticate extracts the bearer credential from the handshake request
// (the dedicated token field first, then the Authorization header) and
// verifies it with the identity provider. Any unexpected fault is
// normalized to a generic rejection so the accept path cannot crash.
func (g *Gate) Authenticate(r *http.Request) (userID string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("identity: panic during verification: %v", rec)
			userID, err = "", ErrAuth
		}
	}()

	token := ExtractToken(r)
	if token == "" {
		return "", ErrNoToken
	}

	ctx, cancel := context.WithTimeout(r.Context(), verifyTimeout)
	defer cancel()

	user, verr := g.verifier.Verify(ctx, token)
	if verr != nil {
		if errors.Is(verr, ErrVerification) {
			return "", ErrInvalidToken
		}
		log.Printf("identity: verification fault: %v", verr)
		return "", ErrAuth
	}
	if user == nil || user.ID == "" {
		return "", ErrInvalidToken
	}
	return user.ID, nil
}

// ExtractToken pulls the bearer credential from a request: the dedicated
// auth field (token query parameter) takes precedence, falling back to a
// standard "Authorization: Bearer" header.
func ExtractToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
