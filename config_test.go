package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	v := newViper()
	v.Set(keyDevice, "/dev/sg0")

	cfg, err := newConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/dev/sg0", cfg.Device)
	assert.Equal(t, uint32(0), cfg.LBA)
	assert.Equal(t, 1, cfg.Blocks)
	assert.Equal(t, 1, cfg.MaxBlocks)
	assert.Equal(t, 1, cfg.Count)
	assert.Equal(t, DefaultBlockSize, cfg.BlockSize)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Inquiry || cfg.Write || cfg.Read || cfg.Table)
}

func TestNewConfigRequiresDevice(t *testing.T) {
	_, err := newConfig(newViper())
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestNewConfigClampsMaxBlocks(t *testing.T) {
	v := newViper()
	v.Set(keyDevice, "/dev/sg0")
	v.Set(keyBlocks, 8)
	v.Set(keyMaxBlocks, 2)

	cfg, err := newConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxBlocks)
	assert.Equal(t, []int{8}, cfg.Sizes())
}

func TestNewConfigRejects(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  any
	}{
		{"zero count", keyCount, 0},
		{"zero blocks", keyBlocks, 0},
		{"maxblocks beyond cdb range", keyMaxBlocks, 70000},
		{"negative lba", keyLBA, -1},
		{"lba beyond 32 bits", keyLBA, int64(1) << 32},
		{"odd block size", keyBlockSize, 1000},
		{"zero chunk", keyChunk, 0},
		{"unknown log format", keyLogFormat, "xml"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newViper()
			v.Set(keyDevice, "/dev/sg0")
			v.Set(tc.key, tc.val)

			_, err := newConfig(v)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewConfigRejectsOversizedTransfer(t *testing.T) {
	v := newViper()
	v.Set(keyDevice, "/dev/sg0")
	v.Set(keyBlockSize, 4096)
	v.Set(keyMaxBlocks, MaxTransferBlocks)

	_, err := newConfig(v)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "32.00 MB")
}

func TestNewConfigFromEnvironment(t *testing.T) {
	t.Setenv("SGBENCH_DEVICE", "/dev/sg3")
	t.Setenv("SGBENCH_COUNT", "5")
	t.Setenv("SGBENCH_BLOCK_SIZE", "4096")

	cfg, err := newConfig(newViper())
	require.NoError(t, err)
	assert.Equal(t, "/dev/sg3", cfg.Device)
	assert.Equal(t, 5, cfg.Count)
	assert.Equal(t, 4096, cfg.BlockSize)
}

func TestRootCommandMissingDevice(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"-w"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, ErrNoDevice)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRootCommandInvalidCount(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"-d", "/dev/null", "-c", "0", "-r"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRootCommandRejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"-d", "/dev/null", "extra"})

	assert.Error(t, cmd.Execute())
}

func TestRootCommandNoTestSelectedSkipsDevice(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"-d", filepath.Join(t.TempDir(), "missing-sg")})

	assert.NoError(t, cmd.Execute(), "device must not be opened when no test is selected")
}
