package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationsAreIdempotent(t *testing.T) {
	for _, m := range Migrations {
		stmt := strings.TrimSpace(m)
		assert.True(t, strings.Contains(stmt, "IF NOT EXISTS"), stmt)
		assert.False(t, strings.HasPrefix(strings.ToUpper(stmt), "DROP"), stmt)
	}
}

func TestPairKeyIsUnique(t *testing.T) {
	var chats string
	for _, m := range Migrations {
		if strings.Contains(m, "TABLE IF NOT EXISTS chats") {
			chats = m
		}
	}
	assert.Contains(t, chats, "pair_key TEXT UNIQUE")
}
