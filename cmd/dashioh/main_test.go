package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsDB(t *testing.T) {
	for _, cmd := range []string{"refresh", "summary", "export:xlsx", "serve", "runs"} {
		assert.True(t, needsDB(cmd), cmd)
	}
	assert.False(t, needsDB("run"))
	assert.False(t, needsDB("unknown"))
}
