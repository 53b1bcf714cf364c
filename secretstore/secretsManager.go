package secretstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/sirupsen/logrus"
)

// SecretsManagerStore resolves a client id to the SecretString of the secret
// with the same name.
type SecretsManagerStore struct {
	secretsManagerApi secretsmanageriface.SecretsManagerAPI
	logger            *logrus.Entry
}

func (s *SecretsManagerStore) GetSecret(ctx context.Context, id string) (string, error) {
	s.logger.WithField("secretId", id).Info("Retrieving secret")

	output, err := s.secretsManagerApi.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSecretLookupFailed, id, err)
	}

	if output.SecretString == nil {
		return "", fmt.Errorf("%w: %s: secret has no string value", ErrSecretLookupFailed, id)
	}

	return *output.SecretString, nil
}

func CreateSecretsManagerStore(secretsManagerApi secretsmanageriface.SecretsManagerAPI) *SecretsManagerStore {
	return &SecretsManagerStore{
		secretsManagerApi: secretsManagerApi,
		logger:            logrus.WithField("secret-store", "secretsmanager"),
	}
}

func CreateSecretsManagerStoreFromSession(sess client.ConfigProvider) *SecretsManagerStore {
	return CreateSecretsManagerStore(secretsmanager.New(sess))
}
