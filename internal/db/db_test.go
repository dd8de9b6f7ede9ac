package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleStatusConstants(t *testing.T) {
	statuses := []string{
		CycleStatusRunning,
		CycleStatusCompleted,
		CycleStatusFailed,
	}

	for _, status := range statuses {
		assert.NotEmpty(t, status, "status constant should not be empty")
	}
}

func TestSchemaStatements_Idempotent(t *testing.T) {
	for _, stmt := range schemaStatements {
		assert.Contains(t, stmt, "IF NOT EXISTS", "schema statement must be safe to re-run: %s", strings.Fields(stmt)[0:3])
	}
}

func TestCycleType(t *testing.T) {
	c := Cycle{
		Region: "US",
		Status: CycleStatusRunning,
	}

	assert.Equal(t, "US", c.Region)
	assert.Nil(t, c.CompletedAt)
	assert.Nil(t, c.Error)
}
