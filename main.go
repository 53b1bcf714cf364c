package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/deinstapel/dyndns/config"
	"github.com/deinstapel/dyndns/domainmanager"
	"github.com/deinstapel/dyndns/dyndns"
	"github.com/deinstapel/dyndns/secretstore"
	"github.com/sirupsen/logrus"
)

func makeSecretStore(cfg *config.Config, awsSession *session.Session) (secretstore.SecretStore, error) {
	var store secretstore.SecretStore

	switch cfg.SecretStore.Backend {
	case config.BackendKubernetes:
		client, err := secretstore.MakeKubernetesClient(cfg.SecretStore.Kubeconfig)
		if err != nil {
			return nil, err
		}
		store = secretstore.CreateKubernetesStore(client, cfg.SecretStore.Namespace, cfg.SecretStore.Name)
	default:
		store = secretstore.CreateSecretsManagerStoreFromSession(awsSession)
	}

	return secretstore.CreateCachedStore(store, cfg.SecretStore.CacheTTL.Duration), nil
}

func main() {
	logger := logrus.WithField("app", "dyndns")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	cfg.ConfigureLogging()

	logger.
		WithField("zone", cfg.HostedZoneID).
		WithField("mode", cfg.Mode).
		WithField("dryRun", cfg.DryRun).
		Info("Starting")

	awsConfig := aws.NewConfig()
	if cfg.AWSRegion != "" {
		awsConfig = awsConfig.WithRegion(cfg.AWSRegion)
	}
	awsSession, err := session.NewSessionWithOptions(session.Options{
		Config:            *awsConfig,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to create AWS session")
		os.Exit(1)
	}

	secretStore, err := makeSecretStore(cfg, awsSession)
	if err != nil {
		logger.WithError(err).Error("Failed to create secret store")
		os.Exit(1)
	}

	route53DomainManager := domainmanager.CreateRoute53DomainManagerFromSession(awsSession)
	domainManager := domainmanager.WrapIntoDryRunProtector(route53DomainManager, cfg.DryRun)

	gate := dyndns.CreateGate(logger, secretStore, cfg.Timeout.Duration)
	reconciler := dyndns.CreateReconciler(logger, dyndns.ReconcilerConfig{
		HostedZoneID: cfg.HostedZoneID,
		TTL:          dyndns.RecordTTL,
		Timeout:      cfg.Timeout.Duration,
	}, domainManager)
	handler := dyndns.CreateHandler(logger, gate, reconciler)

	if cfg.Mode == config.ModeLambda {
		lambda.Start(handler.HandleLambda)
		return
	}

	server := dyndns.CreateHTTPServer(logger, handler, cfg.Listen)
	if err := server.Start(); err != nil {
		logger.WithError(err).Error("Failed to start HTTP server")
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.WithField("signal", sig).Info("Received Signal")

	server.Stop()
}
