package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iho/celledger/internal/cel"
	"github.com/iho/celledger/internal/domain"
)

func testTemplate() *domain.TxTemplate {
	return &domain.TxTemplate{
		ID:   uuid.New(),
		Code: "SIMPLE_TRANSFER",
		Params: []domain.ParamDefinition{
			{Name: "journal_id", Type: domain.ParamUUID},
			{Name: "amount", Type: domain.ParamDecimal},
		},
		TxInput: domain.TxInput{
			Effective: cel.MustParse("date()"),
			JournalID: cel.MustParse("params.journal_id"),
		},
		Entries: []domain.EntryInput{
			{
				EntryType: cel.MustParse("'DR'"),
				AccountID: cel.MustParse("uuid()"),
				Layer:     cel.MustParse("SETTLED"),
				Direction: cel.MustParse("DEBIT"),
				Units:     cel.MustParse("params.amount"),
				Currency:  cel.MustParse("'BTC'"),
			},
		},
		Version:   1,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestTemplateCacheRoundTrip(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewTemplateCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	template := testTemplate()
	if err := cache.Set(ctx, template); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok := cache.Get(ctx, "SIMPLE_TRANSFER")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.ID != template.ID || got.Code != template.Code {
		t.Fatalf("unexpected template: %+v", got)
	}
	// Expressions survive via their source text.
	if got.TxInput.JournalID.Source() != "params.journal_id" {
		t.Errorf("unexpected journal_id expression %q", got.TxInput.JournalID.Source())
	}
	if len(got.Entries) != 1 || got.Entries[0].Units.Source() != "params.amount" {
		t.Errorf("unexpected entries: %+v", got.Entries)
	}
}

func TestTemplateCacheMiss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewTemplateCache(client, time.Minute, zerolog.Nop())

	if _, ok := cache.Get(context.Background(), "NOPE"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestTemplateCacheCorruptEntryDropped(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewTemplateCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	if err := client.Set(ctx, templateKey("BAD"), "{not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, ok := cache.Get(ctx, "BAD"); ok {
		t.Fatal("expected miss for corrupt entry")
	}
	if mr.Exists(templateKey("BAD")) {
		t.Fatal("expected corrupt entry to be evicted")
	}
}

func TestTemplateCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewTemplateCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	template := testTemplate()
	if err := cache.Set(ctx, template); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Delete(ctx, template.Code); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := cache.Get(ctx, template.Code); ok {
		t.Fatal("expected miss after delete")
	}
}
