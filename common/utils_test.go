package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUint64FromStr(t *testing.T) {
	v, err := GetUint64FromStr("0x10")
	require.NoError(t, err)
	assert.Equal(t, uint64(16), v)

	v, err = GetUint64FromStr(" 12345 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), v)

	_, err = GetUint64FromStr("0xzz")
	assert.Error(t, err)
}

func TestAbsolutePath(t *testing.T) {
	assert.Equal(t, "/etc/settle.toml", AbsolutePath("/data", "/etc/settle.toml"))
	assert.Equal(t, "/data/settle.toml", AbsolutePath("/data", "settle.toml"))
}
