// Package db holds the storage clients: the Redis store backing the ledger
// aggregate cache and the Postgres content catalog.
package db

import (
	"context"
	"fmt"

	"github.com/patrickwarner/adreward/internal/models"
)

// CatalogSource yields the full content catalog.
type CatalogSource interface {
	LoadContent(ctx context.Context) ([]models.Content, error)
}

// ReloadCatalog replaces the store's snapshot with the catalog returned by
// src. Items with an unknown monetization mode or without any playable
// source are skipped and counted in skipped.
func ReloadCatalog(ctx context.Context, src CatalogSource, store models.ContentStore) (loaded, skipped int, err error) {
	items, err := src.LoadContent(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load content: %w", err)
	}
	valid := make([]models.Content, 0, len(items))
	for _, c := range items {
		if !validContent(c) {
			skipped++
			continue
		}
		valid = append(valid, c)
	}
	if err := store.ReloadAll(valid); err != nil {
		return 0, skipped, fmt.Errorf("reload store: %w", err)
	}
	return len(valid), skipped, nil
}

func validContent(c models.Content) bool {
	switch c.Monetization {
	case models.MonetizationAdSupported, models.MonetizationSubscription, models.MonetizationPayPerView:
	default:
		return false
	}
	if c.IsExternal() {
		_, err := models.ExtractVideoID(c.ExternalURL)
		return err == nil
	}
	return c.AssetID != ""
}
