package secretstore

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/ericchiang/k8s"
	corev1 "github.com/ericchiang/k8s/apis/core/v1"
	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"
)

// SecretGetter is the part of *k8s.Client the store needs.
type SecretGetter interface {
	Get(ctx context.Context, namespace, name string, resource k8s.Resource, options ...k8s.Option) error
}

// KubernetesStore keeps all client tokens in one Secret, keyed by client id.
type KubernetesStore struct {
	kubernetesClient SecretGetter
	namespace        string
	name             string
	logger           *logrus.Entry
}

func (s *KubernetesStore) GetSecret(ctx context.Context, id string) (string, error) {
	s.logger.WithField("secretId", id).Info("Retrieving secret")

	var secret corev1.Secret
	err := s.kubernetesClient.Get(ctx, s.namespace, s.name, &secret)
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s: %v", ErrSecretLookupFailed, s.namespace, s.name, err)
	}

	value, ok := secret.Data[id]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s has no key %s", ErrSecretLookupFailed, s.namespace, s.name, id)
	}

	return string(value), nil
}

func CreateKubernetesStore(kubernetesClient SecretGetter, namespace string, name string) *KubernetesStore {
	return &KubernetesStore{
		kubernetesClient: kubernetesClient,
		namespace:        namespace,
		name:             name,
		logger:           logrus.WithField("secret-store", "kubernetes"),
	}
}

func makeKubeconfigClient(path string) (*k8s.Client, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := new(k8s.Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return k8s.NewClient(config)
}

// MakeKubernetesClient uses the kubeconfig at path if given, the in-cluster
// service account otherwise.
func MakeKubernetesClient(kubeconfig string) (*k8s.Client, error) {
	if kubeconfig != "" {
		return makeKubeconfigClient(kubeconfig)
	}
	return k8s.NewInClusterClient()
}
