package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-curator/internal/types"
)

func TestBuildSearchQuery(t *testing.T) {
	sql, args, err := buildSearchQuery(types.CatalogQuery{
		AnyOf:  []string{"Python", "머신러닝"},
		Fields: []types.CatalogField{types.FieldTitle, types.FieldIntro},
		Limit:  300,
	})
	require.NoError(t, err)

	assert.Equal(t, []any{"%Python%", "%머신러닝%", 300}, args)
	assert.Contains(t, sql, "course_name ILIKE $1 OR course_intro ILIKE $1")
	assert.Contains(t, sql, "course_name ILIKE $2 OR course_intro ILIKE $2")
	assert.Contains(t, sql, "ORDER BY development_year DESC NULLS LAST, id ASC")
	assert.True(t, strings.HasSuffix(sql, "LIMIT $3"))
}

func TestBuildSearchQuery_DefaultFields(t *testing.T) {
	sql, args, err := buildSearchQuery(types.CatalogQuery{AnyOf: []string{"AI"}})
	require.NoError(t, err)

	assert.Len(t, args, 1)
	for _, col := range []string{"course_name", "course_intro", "learning_objective", "major_category", "middle_category", "minor_category"} {
		assert.Contains(t, sql, col+" ILIKE $1")
	}
	assert.NotContains(t, sql, "LIMIT")
}

func TestBuildSearchQuery_Errors(t *testing.T) {
	_, _, err := buildSearchQuery(types.CatalogQuery{})
	assert.ErrorContains(t, err, "at least one keyword")

	_, _, err = buildSearchQuery(types.CatalogQuery{AnyOf: []string{"x"}, Fields: []types.CatalogField{"price"}})
	assert.ErrorContains(t, err, `unknown catalog field "price"`)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, "CI/CD", escapeLike("CI/CD"))
}

func TestDecodeCurriculum(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "null", raw: "null", want: nil},
		{name: "empty", raw: "", want: nil},
		{name: "string array", raw: `["1차시 소개", "", "2차시 실습"]`, want: []string{"1차시 소개", "2차시 실습"}},
		{name: "mixed array", raw: `["개요", {"week": 2}]`, want: []string{"개요", `{"week":2}`}},
		{name: "plain string", raw: `"전체 커리큘럼"`, want: []string{"전체 커리큘럼"}},
		{name: "object", raw: `{"a": 1}`, want: []string{`{"a": 1}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeCurriculum([]byte(tt.raw)))
		})
	}
}

func TestDecodeEmbedding(t *testing.T) {
	vec, err := decodeEmbedding([]byte(`[0.5, -1, 2.25]`))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2.25}, vec)

	vec, err = decodeEmbedding([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, vec)

	_, err = decodeEmbedding([]byte(`{"x": 1}`))
	assert.Error(t, err)
}
