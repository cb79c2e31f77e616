package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/config"
)

func TestNewPostgres_EmptyDSNRunsWithoutDatabase(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, pg.Enabled())
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}

func TestRunMigrations_NoPoolIsNoop(t *testing.T) {
	require.NoError(t, RunMigrations(context.Background(), nil, "does-not-exist", zap.NewNop()))
}

func TestNewRedis_Ping(t *testing.T) {
	srv := miniredis.RunT(t)

	r := NewRedis(config.RedisConfig{Addr: srv.Addr()}, zap.NewNop())
	defer r.Close()

	assert.NoError(t, r.Ping(context.Background()))
}

func TestRedis_NilPing(t *testing.T) {
	var r *Redis
	assert.Error(t, r.Ping(context.Background()))
}
