package app

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	correlationHTTP "github.com/allisson/outreach/internal/correlation/http"
	correlationUseCase "github.com/allisson/outreach/internal/correlation/usecase"

	// Register the KMS provider drivers for webhook secret decryption
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// WebhookSecret returns the webhook signing secret, decrypting it through
// the configured KMS keeper when WEBHOOK_SECRET_KMS_URI is set.
func (c *Container) WebhookSecret() (string, error) {
	var err error
	c.webhookSecretInit.Do(func() {
		c.webhookSecret, err = c.resolveWebhookSecret(context.Background())
		if err != nil {
			c.initErrors["webhookSecret"] = err
		}
	})
	if err != nil {
		return "", err
	}
	if storedErr, exists := c.initErrors["webhookSecret"]; exists {
		return "", storedErr
	}
	return c.webhookSecret, nil
}

// CorrelationUseCase returns the response correlation use case.
func (c *Container) CorrelationUseCase() (correlationUseCase.CorrelationUseCase, error) {
	var err error
	c.correlationUseCaseInit.Do(func() {
		c.correlationUseCase, err = c.initCorrelationUseCase()
		if err != nil {
			c.initErrors["correlationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["correlationUseCase"]; exists {
		return nil, storedErr
	}
	return c.correlationUseCase, nil
}

// WebhookHandler returns the HTTP handler for inbound webhook events.
func (c *Container) WebhookHandler() (*correlationHTTP.WebhookHandler, error) {
	var err error
	c.webhookHandlerInit.Do(func() {
		c.webhookHandler, err = c.initWebhookHandler()
		if err != nil {
			c.initErrors["webhookHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["webhookHandler"]; exists {
		return nil, storedErr
	}
	return c.webhookHandler, nil
}

// resolveWebhookSecret returns the plain secret from configuration, or
// decrypts the base64 ciphertext through a gocloud.dev keeper when a KMS
// URI is configured.
func (c *Container) resolveWebhookSecret(ctx context.Context) (string, error) {
	if c.config.WebhookSecretKMSURI == "" {
		return c.config.WebhookSecret, nil
	}

	if c.config.WebhookSecretCiphertext == "" {
		return "", fmt.Errorf("WEBHOOK_SECRET_CIPHERTEXT is required when WEBHOOK_SECRET_KMS_URI is set")
	}

	keeper, err := secrets.OpenKeeper(ctx, c.config.WebhookSecretKMSURI)
	if err != nil {
		return "", fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := base64.StdEncoding.DecodeString(c.config.WebhookSecretCiphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode webhook secret ciphertext: %w", err)
	}

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt webhook secret: %w", err)
	}

	return string(plaintext), nil
}

// initCorrelationUseCase creates the correlation use case with all its dependencies.
func (c *Container) initCorrelationUseCase() (correlationUseCase.CorrelationUseCase, error) {
	emailJobRepo, err := c.EmailJobRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get email job repository for correlation use case: %w", err)
	}

	prospectRepo, err := c.ProspectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get prospect repository for correlation use case: %w", err)
	}

	webhookSecret, err := c.WebhookSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve webhook secret for correlation use case: %w", err)
	}

	collaborators := c.Collaborators()

	baseUseCase := correlationUseCase.NewCorrelationUseCase(
		emailJobRepo,
		prospectRepo,
		collaborators,
		collaborators,
		c.Logger(),
		webhookSecret,
		c.config.CorrelationWindow,
		c.config.CorrelationLookback,
		c.config.OrganizationDomains,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for correlation use case: %w", err)
		}
		return correlationUseCase.NewCorrelationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initWebhookHandler creates the webhook HTTP handler with all its dependencies.
func (c *Container) initWebhookHandler() (*correlationHTTP.WebhookHandler, error) {
	useCase, err := c.CorrelationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get correlation use case for webhook handler: %w", err)
	}

	return correlationHTTP.NewWebhookHandler(useCase, c.Logger()), nil
}
