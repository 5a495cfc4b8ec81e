package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-curator/internal/types"
)

// fakeCatalog is an in-memory CatalogStore with the same matching rules as the database.
type fakeCatalog struct {
	items     []types.CatalogItem
	err       error
	lastQuery *types.CatalogQuery
	recentN   int
}

func (f *fakeCatalog) SearchItems(_ context.Context, q types.CatalogQuery) ([]types.CatalogItem, error) {
	f.lastQuery = &q
	if f.err != nil {
		return nil, f.err
	}
	var out []types.CatalogItem
	for _, item := range f.items {
		text := strings.ToLower(strings.Join([]string{
			item.Title, item.Intro, item.Objective,
			item.MajorCategory, item.MiddleCategory, item.MinorCategory,
		}, " "))
		for _, kw := range q.AnyOf {
			if strings.Contains(text, strings.ToLower(kw)) {
				out = append(out, item)
				break
			}
		}
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) RecentItems(_ context.Context, limit int) ([]types.CatalogItem, error) {
	f.recentN = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.items) {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func catalog() []types.CatalogItem {
	return []types.CatalogItem{
		{ID: 1, Title: "Python 머신러닝 입문", Intro: "데이터 분석 기초", DevelopmentYear: "2024"},
		{ID: 2, Title: "물류 관리 실무", Intro: "Python 자동화로 배우는 물류", DevelopmentYear: "2023"},
		{ID: 3, Title: "리더십 코칭", MajorCategory: "경영", DevelopmentYear: "2022"},
		{ID: 4, Title: "딥러닝 심화", Objective: "PYTHON 기반 모델 구현", DevelopmentYear: "2021"},
	}
}

func TestHardFilter_SearchesAndExcludes(t *testing.T) {
	store := &fakeCatalog{items: catalog()}
	intent := &types.SearchIntent{
		PrimaryKeywords:   []string{"python"},
		SecondaryKeywords: []string{"Python", "딥러닝"},
		ExclusionKeywords: []string{"물류"},
	}

	items, err := HardFilter(context.Background(), store, intent, 300)
	require.NoError(t, err)

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int64{1, 4}, ids)

	require.NotNil(t, store.lastQuery)
	assert.Equal(t, []string{"python", "딥러닝"}, store.lastQuery.AnyOf)
	assert.Equal(t, types.HardFilterFields, store.lastQuery.Fields)
	assert.Equal(t, 300, store.lastQuery.Limit)
}

func TestHardFilter_NoKeywordsReturnsRecent(t *testing.T) {
	store := &fakeCatalog{items: catalog()}

	items, err := HardFilter(context.Background(), store, &types.SearchIntent{
		ExclusionKeywords: []string{"물류"},
	}, 3)
	require.NoError(t, err)

	assert.Len(t, items, 3)
	assert.Equal(t, 3, store.recentN)
	assert.Nil(t, store.lastQuery)
}

func TestHardFilter_NoMatches(t *testing.T) {
	store := &fakeCatalog{items: catalog()}

	items, err := HardFilter(context.Background(), store, &types.SearchIntent{
		PrimaryKeywords: []string{"블록체인"},
	}, 300)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHardFilter_StoreError(t *testing.T) {
	store := &fakeCatalog{err: errors.New("connection refused")}

	_, err := HardFilter(context.Background(), store, &types.SearchIntent{PrimaryKeywords: []string{"AI"}}, 300)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExcludeItems(t *testing.T) {
	items := catalog()

	assert.Equal(t, items, ExcludeItems(items, nil))
	assert.Equal(t, items, ExcludeItems(items, []string{"  "}))

	kept := ExcludeItems(items, []string{"MACHINE", "머신러닝", "경영"})
	require.Len(t, kept, 3)
	// category text is not part of the exclusion corpus
	assert.Equal(t, int64(3), kept[1].ID)
}
