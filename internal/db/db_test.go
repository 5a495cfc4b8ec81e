package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactStepConstants(t *testing.T) {
	steps := []string{StepIntent, StepMetrics, StepResult, StepError}

	seen := map[string]bool{}
	for _, step := range steps {
		assert.NotEmpty(t, step, "step constant should not be empty")
		assert.False(t, seen[step], "duplicate step %q", step)
		seen[step] = true
	}
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"contents", "content_embeddings", "packages", "package_items", "recommendation_runs", "run_artifacts"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestDerefString(t *testing.T) {
	s := "x"
	assert.Equal(t, "x", derefString(&s))
	assert.Equal(t, "", derefString(nil))
}
