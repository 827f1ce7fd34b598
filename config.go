package main

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

// Config is the validated, read-only configuration of one run.
type Config struct {
	Device     string
	LBA        uint32
	Blocks     int
	MaxBlocks  int
	Count      int
	BlockSize  int
	Seed       int64
	Verbose    bool
	Inquiry    bool
	Write      bool
	Read       bool
	Table      bool
	LogFormat  string
	ImageChunk int
}

// Config keys shared by flags, environment and the config file.
const (
	keyDevice    = "device"
	keyLBA       = "lba"
	keyBlocks    = "blocks"
	keyMaxBlocks = "maxblocks"
	keyCount     = "count"
	keyBlockSize = "block-size"
	keySeed      = "seed"
	keyVerbose   = "verbose"
	keyInquiry   = "inquiry"
	keyWrite     = "write"
	keyRead      = "read"
	keyTable     = "table"
	keyLogFormat = "log-format"
	keyChunk     = "chunk"
)

// newViper returns a viper instance with defaults, SGBENCH_ environment
// variables and the search path for sgbench.yaml.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("sgbench")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.sgbench")
	v.AddConfigPath("/etc/sgbench")

	v.SetDefault(keyLBA, 0)
	v.SetDefault(keyBlocks, 1)
	v.SetDefault(keyMaxBlocks, 1)
	v.SetDefault(keyCount, 1)
	v.SetDefault(keyBlockSize, DefaultBlockSize)
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyChunk, 128)

	v.SetEnvPrefix("SGBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// readConfigFile loads sgbench.yaml if one exists. A missing file is fine.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// newConfig builds and validates a Config from v.
func newConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Device:     v.GetString(keyDevice),
		Blocks:     v.GetInt(keyBlocks),
		MaxBlocks:  v.GetInt(keyMaxBlocks),
		Count:      v.GetInt(keyCount),
		BlockSize:  v.GetInt(keyBlockSize),
		Seed:       v.GetInt64(keySeed),
		Verbose:    v.GetBool(keyVerbose),
		Inquiry:    v.GetBool(keyInquiry),
		Write:      v.GetBool(keyWrite),
		Read:       v.GetBool(keyRead),
		Table:      v.GetBool(keyTable),
		LogFormat:  v.GetString(keyLogFormat),
		ImageChunk: v.GetInt(keyChunk),
	}

	if cfg.Device == "" {
		return nil, ErrNoDevice
	}

	lba := v.GetInt64(keyLBA)
	if lba < 0 || lba > math.MaxUint32 {
		return nil, fmt.Errorf("%w: lba %d does not fit in 32 bits", ErrInvalidConfig, lba)
	}
	cfg.LBA = uint32(lba)

	if cfg.Blocks < 1 || cfg.Blocks > MaxTransferBlocks {
		return nil, fmt.Errorf("%w: blocks must be between 1 and %d, got %d", ErrInvalidConfig, MaxTransferBlocks, cfg.Blocks)
	}
	if cfg.MaxBlocks < cfg.Blocks {
		cfg.MaxBlocks = cfg.Blocks
	}
	if cfg.MaxBlocks > MaxTransferBlocks {
		return nil, fmt.Errorf("%w: maxblocks must not exceed %d, got %d", ErrInvalidConfig, MaxTransferBlocks, cfg.MaxBlocks)
	}
	if cfg.Count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidConfig, cfg.Count)
	}
	if cfg.BlockSize < 1 || cfg.BlockSize%DefaultBlockSize != 0 || cfg.BlockSize > 64*kb {
		return nil, fmt.Errorf("%w: block size must be a multiple of %d up to 64K, got %d", ErrInvalidConfig, DefaultBlockSize, cfg.BlockSize)
	}
	if int64(cfg.BlockSize)*int64(cfg.MaxBlocks) > MaxTransferBytes {
		return nil, fmt.Errorf("%w: %d blocks of %d bytes exceed the %s transfer limit",
			ErrInvalidConfig, cfg.MaxBlocks, cfg.BlockSize, formatBytes(uint64(MaxTransferBytes)))
	}
	if cfg.ImageChunk < 1 || cfg.ImageChunk > MaxTransferBlocks {
		return nil, fmt.Errorf("%w: chunk must be between 1 and %d, got %d", ErrInvalidConfig, MaxTransferBlocks, cfg.ImageChunk)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, cfg.LogFormat)
	}

	return cfg, nil
}

// Sizes returns the transfer sizes the benchmark sweeps, in blocks.
func (c *Config) Sizes() []int {
	sizes := make([]int, 0, c.MaxBlocks-c.Blocks+1)
	for n := c.Blocks; n <= c.MaxBlocks; n++ {
		sizes = append(sizes, n)
	}
	return sizes
}
