package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBossTable_Loads(t *testing.T) {
	table, err := DefaultBossTable()
	require.NoError(t, err)

	for _, v := range []string{"jp", "tw", "cn"} {
		assert.True(t, table.HasVariant(v), v)
	}
	hp, err := table.Lookup("jp", 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000_000), hp)
}

func TestBossTable_LookupClampsAndUsesArchiveOverride(t *testing.T) {
	table, err := ParseBossTable([]byte(testBossTableYAML))
	require.NoError(t, err)

	hp, err := table.Lookup("jp", 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), hp)

	hp, err = table.Lookup("jp", 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(150), hp)

	// 超出最后阶段沿用最后一行
	hp, err = table.Lookup("jp", 1, 5, 999)
	require.NoError(t, err)
	assert.Equal(t, int64(550), hp)

	hp, err = table.Lookup("jp", 2, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), hp)

	assert.Equal(t, 0, table.Stage("jp", 1, 1))
	assert.Equal(t, 1, table.Stage("jp", 1, 7))

	_, err = table.Lookup("jp", 1, 6, 1)
	assert.Error(t, err)
	_, err = table.Lookup("kr", 1, 1, 1)
	assert.Error(t, err)
}

func TestParseBossTable_Rejects(t *testing.T) {
	bad := []string{
		"",
		"jp:\n  default: []\n",
		"jp:\n  default:\n    - from_cycle: 2\n      hp: [1, 2, 3, 4, 5]\n",
		"jp:\n  default:\n    - from_cycle: 1\n      hp: [1, 2, 3]\n",
		"jp:\n  default:\n    - from_cycle: 1\n      hp: [1, 2, 0, 4, 5]\n",
	}
	for _, in := range bad {
		_, err := ParseBossTable([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}
