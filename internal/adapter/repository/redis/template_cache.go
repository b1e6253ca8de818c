package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/celledger/internal/domain"
)

// TemplateCache implements usecase.TemplateCache with a cache-aside
// policy. Templates are immutable once stored, so a hit never needs
// revalidation; failures degrade to the database instead of failing the
// posting.
type TemplateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewTemplateCache creates a new TemplateCache.
func NewTemplateCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *TemplateCache {
	return &TemplateCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func templateKey(code string) string {
	return "tx_template:" + code
}

// Get returns the cached template for code, reporting misses (and any
// cache failure, which counts as a miss) via the bool return.
func (c *TemplateCache) Get(ctx context.Context, code string) (*domain.TxTemplate, bool) {
	raw, err := c.client.Get(ctx, templateKey(code)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("code", code).Msg("template cache read failed")
		}
		return nil, false
	}

	var template domain.TxTemplate
	if err := json.Unmarshal(raw, &template); err != nil {
		c.logger.Warn().Err(err).Str("code", code).Msg("template cache entry corrupt, dropping")
		_ = c.client.Del(ctx, templateKey(code)).Err()
		return nil, false
	}

	return &template, true
}

// Set stores a template under its code.
func (c *TemplateCache) Set(ctx context.Context, template *domain.TxTemplate) error {
	raw, err := json.Marshal(template)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, templateKey(template.Code), raw, c.ttl).Err()
}

// Delete evicts a template by code.
func (c *TemplateCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, templateKey(code)).Err()
}
