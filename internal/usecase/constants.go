package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// TemplateCacheTTL is how long parsed templates are cached
	TemplateCacheTTL = 24 * time.Hour

	// DefaultListLimit bounds unpaginated list queries
	DefaultListLimit = 100
)
