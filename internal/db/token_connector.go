package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgplan/internal/retry"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// tokenExpiryWarning is how close to expiry a fresh token may be before we warn.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector authenticates with a short-lived cloud token used as the password.
type TokenBasedConnector struct {
	config        *pgplan.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	logger        pgplan.Logger
}

// NewTokenBasedConnector creates a connector around tokenProvider.
// providerName appears in log and error messages ("AWS IAM", "Azure").
func NewTokenBasedConnector(config *pgplan.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger pgplan.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newRetryExecutor(logger),
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	c.logger.Verbose("Acquiring token from %s", c.tokenProvider)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}

		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
		}

		configWithToken := *c.config
		configWithToken.Password = token

		poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&configWithToken))
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", pgplan.ErrInvalidConfig)
		}
		configurePool(poolConfig, c.logger)

		pool, err = openPool(ctx, poolConfig, c.config)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
