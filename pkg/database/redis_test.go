package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/verification-api/internal/config"
)

func TestNewUniversalRedisClient_Single(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewUniversalRedisClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	assert.True(t, RedisConfigured(config.RedisConfig{Addr: mr.Addr()}))
}

func TestNewUniversalRedisClient_Errors(t *testing.T) {
	_, err := NewUniversalRedisClient(config.RedisConfig{})
	assert.Error(t, err)

	_, err = NewUniversalRedisClient(config.RedisConfig{Addr: "localhost:1", Mode: "sentinel"})
	assert.Error(t, err)

	_, err = NewUniversalRedisClient(config.RedisConfig{Addr: "localhost:1", Mode: "mesh"})
	assert.Error(t, err)

	assert.False(t, RedisConfigured(config.RedisConfig{}))
}
