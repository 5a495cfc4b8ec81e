package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument_SearchIntent(t *testing.T) {
	doc := `{
		"primaryKeywords": ["AI", "머신러닝"],
		"secondaryKeywords": ["Python"],
		"domain": "IT/개발",
		"targetLevel": "중급",
		"exclusionKeywords": [],
		"technicalStack": null
	}`
	assert.NoError(t, ValidateDocument(SearchIntent, []byte(doc)))
}

func TestValidateDocument_SearchIntentMissingPrimary(t *testing.T) {
	err := ValidateDocument(SearchIntent, []byte(`{"domain": "IT/개발"}`))
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, err.Error(), "primaryKeywords")
}

func TestValidateDocument_SearchIntentWrongType(t *testing.T) {
	err := ValidateDocument(SearchIntent, []byte(`{"primaryKeywords": "AI"}`))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "primaryKeywords", validationErr.Errors[0].Field)
}

func TestValidateDocument_RelevanceJudgments(t *testing.T) {
	valid := `[{"itemId": 12, "relevanceScore": 8, "reason": "직접 관련"}, {"itemId": 13, "relevanceScore": 3}]`
	assert.NoError(t, ValidateDocument(RelevanceJudgments, []byte(valid)))

	err := ValidateDocument(RelevanceJudgments, []byte(`[{"itemId": "12", "relevanceScore": 8}]`))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "0.itemId", validationErr.Errors[0].Field)

	assert.Error(t, ValidateDocument(RelevanceJudgments, []byte(`{"itemId": 1}`)))
}

func TestValidateDocument_MalformedJSON(t *testing.T) {
	err := ValidateDocument(SearchIntent, []byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load document")
}

func TestValidateDocument_UnknownSchema(t *testing.T) {
	err := ValidateDocument("nope", []byte(`{}`))
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "nope.schema.json", loadErr.Path)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "curator"}`))
	assert.Error(t, ValidateJSONString(schema, `{}`))
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, ValidateJSONString(`{"type": 12}`, `{}`), &loadErr)
}
