package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go/logging"
	log "github.com/sirupsen/logrus"
)

// SecretsManagerClient is the part of the Secrets Manager API adeploy needs.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type ClientFactory interface {
	SecretsManager(ctx context.Context, profile string, region string) (SecretsManagerClient, error)
}

type clientKey struct {
	profile string
	region  string
}

// sdkClientFactory loads the shared AWS config once per profile and region.
type sdkClientFactory struct {
	mu      sync.Mutex
	clients map[clientKey]SecretsManagerClient
}

func NewClientFactory() ClientFactory {
	return &sdkClientFactory{
		clients: map[clientKey]SecretsManagerClient{},
	}
}

func (f *sdkClientFactory) SecretsManager(ctx context.Context, profile string, region string) (SecretsManagerClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := clientKey{profile: profile, region: region}
	if c, ok := f.clients[k]; ok {
		return c, nil
	}

	opts := []func(*config.LoadOptions) error{
		config.WithLogger(sdkLogger),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	c := secretsmanager.NewFromConfig(cfg)
	f.clients[k] = c
	return c, nil
}

// sdkLogger forwards SDK warnings to the log, everything else is only shown with --debug.
var sdkLogger = logging.LoggerFunc(func(classification logging.Classification, format string, v ...interface{}) {
	if classification == logging.Warn {
		log.Warnf(format, v...)
	} else {
		log.Debugf(format, v...)
	}
})
