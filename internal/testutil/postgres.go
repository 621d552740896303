package testutil

import (
	"context"

	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
)

// MockPostgresClient satisfies postgres.IClient for tests. WithTx runs the
// function directly; the in-memory stores have no transaction semantics.
type MockPostgresClient struct {
	logger *logger.Logger
}

func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{logger: logger}
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (c *MockPostgresClient) Close() {}
