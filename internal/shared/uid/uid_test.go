package uid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "uuidv7", opts: Options{Strategy: StrategyUUIDv7}, wantErr: false},
		{name: "snowflake", opts: Options{Strategy: StrategySnowflake, NodeID: 1}, wantErr: false},
		{name: "snowflake node out of range", opts: Options{Strategy: StrategySnowflake, NodeID: 4096}, wantErr: true},
		{name: "unknown strategy", opts: Options{Strategy: "ulid"}, wantErr: true},
		{name: "empty strategy", opts: Options{}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen, err := New(tc.opts)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, gen)
		})
	}
}

func TestUUIDv7Generator_Generate(t *testing.T) {
	gen, err := New(Options{Strategy: StrategyUUIDv7})
	require.NoError(t, err)

	id, err := gen.Generate(context.Background())
	require.NoError(t, err)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSnowflakeGenerator_GenerateUnique(t *testing.T) {
	gen, err := New(Options{Strategy: StrategySnowflake, NodeID: 3})
	require.NoError(t, err)

	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id, err := gen.Generate(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, id)

		_, dup := seen[id]
		require.False(t, dup, "snowflake ids must be unique")
		seen[id] = struct{}{}
	}
}
