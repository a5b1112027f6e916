package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Secrets holds the address and credentials of a search service.
type Secrets struct {
	// Host is the base URL, e.g. http://localhost:7700.
	Host string `json:"host"`
	// APIKey is sent as X-Meili-API-Key. It may be empty for an
	// unprotected instance.
	APIKey string `json:"api_key"`
}

// FetchSecrets is a function type that retrieves the service address and credentials.
// It allows for different secret retrieval strategies (static, environment variables, etc.).
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets function that provides static credentials.
func StaticSecrets(host, apiKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			Host:   host,
			APIKey: apiKey,
		}, nil
	}
}

// EnvSecrets reads MEILI_HOST and the optional MEILI_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		host := os.Getenv("MEILI_HOST")
		if host == "" {
			return Secrets{}, fmt.Errorf("MEILI_HOST environment variable is not set")
		}

		return Secrets{
			Host:   host,
			APIKey: os.Getenv("MEILI_API_KEY"),
		}, nil
	}
}

// SecretsManagerClient defines the interface for AWS Secrets Manager operations.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecrets returns a FetchSecrets function that reads the secret stored at
// "{environment}/meilisearch". The secret holds JSON with host and api_key.
func AWSSecrets(ctx context.Context, client SecretsManagerClient, env string) FetchSecrets {
	return func() (Secrets, error) {
		return fetchAWSSecret(ctx, client, fmt.Sprintf("%s/meilisearch", env))
	}
}

// AWSSecretsFromARN is like AWSSecrets but addresses the secret by ARN.
func AWSSecretsFromARN(ctx context.Context, client SecretsManagerClient, secretArn string) FetchSecrets {
	return func() (Secrets, error) {
		return fetchAWSSecret(ctx, client, secretArn)
	}
}

func fetchAWSSecret(ctx context.Context, client SecretsManagerClient, secretID string) (Secrets, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return Secrets{}, fmt.Errorf("failed to get secret from AWS Secrets Manager at %s: %w", secretID, err)
	}

	if result.SecretString == nil {
		return Secrets{}, fmt.Errorf("secret at %s has no string value", secretID)
	}

	var secrets Secrets
	if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &secrets); err != nil {
		return Secrets{}, fmt.Errorf("failed to unmarshal secret JSON from %s: %w", secretID, err)
	}

	return secrets, nil
}
