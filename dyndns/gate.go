package dyndns

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/sirupsen/logrus"
)

type SecretStore interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

type AuthContext struct {
	ClientID       string
	PresentedToken string
	ExpectedToken  string
}

func (a *AuthContext) matches() bool {
	if a.PresentedToken == "" || a.ExpectedToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.PresentedToken), []byte(a.ExpectedToken)) == 1
}

// Gate checks a caller token against the secret stored for its client id.
type Gate struct {
	secretStore SecretStore
	timeout     time.Duration
	logger      *logrus.Entry
}

// Authenticate returns nil when presentedToken equals the stored secret of
// clientID. Lookup failures are reported as *AuthError as well, so callers
// cannot tell unknown client ids from wrong tokens.
func (g *Gate) Authenticate(ctx context.Context, clientID string, presentedToken string) error {
	l := g.logger.WithField("client", clientID)

	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	expectedToken, err := g.secretStore.GetSecret(lookupCtx, clientID)
	if err != nil {
		l.WithError(err).Warn("Could not retrieve secret")
		return &AuthError{Reason: InvalidToken, ClientID: clientID}
	}

	authContext := AuthContext{
		ClientID:       clientID,
		PresentedToken: presentedToken,
		ExpectedToken:  expectedToken,
	}
	if !authContext.matches() {
		l.Warn("Invalid token")
		return &AuthError{Reason: InvalidToken, ClientID: clientID}
	}

	return nil
}

func CreateGate(logger *logrus.Entry, secretStore SecretStore, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Gate{
		secretStore: secretStore,
		timeout:     timeout,
		logger:      logger.WithField("module", "credential-gate"),
	}
}
