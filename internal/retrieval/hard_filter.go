// Package retrieval narrows the catalog to candidates that mention the search keywords.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/content-curator/internal/types"
)

// CatalogStore is the read side of the content catalog.
type CatalogStore interface {
	SearchItems(ctx context.Context, q types.CatalogQuery) ([]types.CatalogItem, error)
	RecentItems(ctx context.Context, limit int) ([]types.CatalogItem, error)
}

// HardFilter returns up to limit catalog items matching any intent keyword,
// newest first, minus items whose title, intro or objective mention an
// exclusion keyword. Without keywords the newest items are returned unfiltered.
func HardFilter(ctx context.Context, store CatalogStore, intent *types.SearchIntent, limit int) ([]types.CatalogItem, error) {
	keywords := intent.AllKeywords()
	if len(keywords) == 0 {
		items, err := store.RecentItems(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent items: %w", err)
		}
		return items, nil
	}

	items, err := store.SearchItems(ctx, types.CatalogQuery{
		AnyOf:  keywords,
		Fields: types.HardFilterFields,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}

	return ExcludeItems(items, intent.ExclusionKeywords), nil
}

// ExcludeItems drops items whose combined text contains any exclusion keyword,
// case-insensitively. Order is preserved.
func ExcludeItems(items []types.CatalogItem, exclusions []string) []types.CatalogItem {
	lowered := make([]string, 0, len(exclusions))
	for _, ex := range exclusions {
		if ex = strings.ToLower(strings.TrimSpace(ex)); ex != "" {
			lowered = append(lowered, ex)
		}
	}
	if len(lowered) == 0 {
		return items
	}

	kept := make([]types.CatalogItem, 0, len(items))
	for _, item := range items {
		text := strings.ToLower(item.SearchText())
		excluded := false
		for _, ex := range lowered {
			if strings.Contains(text, ex) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, item)
		}
	}
	return kept
}
