package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultActivityCacheTTL bounds how stale a cached activity snapshot can be
	DefaultActivityCacheTTL = 30 * time.Second

	// DefaultServicesCacheTTL is how long the bill services catalog is cached
	DefaultServicesCacheTTL = 10 * time.Minute

	// DefaultFlowTTL is how long an idle wizard flow is kept in memory
	DefaultFlowTTL = 30 * time.Minute

	// aliasAttempts bounds retries when a generated alias is already taken
	aliasAttempts = 5
)
