package server_test

import (
	"testing"

	"rse-auditor/core/server"

	"github.com/stretchr/testify/assert"
)

func TestAddr(t *testing.T) {
	cfg := server.Config{Port: "9090"}
	assert.Equal(t, ":9090", cfg.Addr())
}
