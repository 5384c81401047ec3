package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/nodesync/internal/config"
)

func TestApplyPoolSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		cfg          *config.DatabaseConfig
		wantMax      int32
		wantMin      int32
		wantLifetime time.Duration
		wantErr      string
	}{
		{
			name:         "defaults",
			cfg:          &config.DatabaseConfig{},
			wantMax:      defaultMaxOpenConns,
			wantMin:      defaultMaxIdleConns,
			wantLifetime: defaultConnMaxLifetime,
		},
		{
			name:         "explicit values",
			cfg:          &config.DatabaseConfig{MaxOpenConns: 8, MaxIdleConns: 3, ConnMaxLifetime: "1h"},
			wantMax:      8,
			wantMin:      3,
			wantLifetime: time.Hour,
		},
		{
			name:         "idle is capped by open",
			cfg:          &config.DatabaseConfig{MaxOpenConns: 2, MaxIdleConns: 10},
			wantMax:      2,
			wantMin:      2,
			wantLifetime: defaultConnMaxLifetime,
		},
		{
			name:    "invalid lifetime",
			cfg:     &config.DatabaseConfig{ConnMaxLifetime: "forever"},
			wantErr: "invalid connection max lifetime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			poolConfig, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db?sslmode=disable")
			require.NoError(t, err)

			err = applyPoolSettings(poolConfig, tt.cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, poolConfig.MaxConns)
			assert.Equal(t, tt.wantMin, poolConfig.MinConns)
			assert.Equal(t, tt.wantLifetime, poolConfig.MaxConnLifetime)
			assert.Equal(t, defaultConnectTimeout, poolConfig.ConnConfig.ConnectTimeout)
		})
	}
}

func TestNewPool_NilConfig(t *testing.T) {
	t.Parallel()

	_, err := NewPool(context.Background(), nil)
	require.ErrorContains(t, err, "database configuration is required")
}
