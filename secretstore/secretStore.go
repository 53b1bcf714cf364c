package secretstore

import (
	"context"
	"errors"
)

var ErrSecretLookupFailed = errors.New("secret lookup failed")

type SecretStore interface {
	GetSecret(ctx context.Context, id string) (string, error)
}
