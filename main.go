package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := newViper()

	root := &cobra.Command{
		Use:   "sgbench -d DEVICE [-l LBA] [-b BLOCKS] [-m MAXBLOCKS] [-c COUNT] [-i] [-w] [-r] [-t] [-v]",
		Short: "Benchmark a block device through SCSI generic passthrough",
		Long: `sgbench issues INQUIRY, READ(10) and WRITE(10) commands through the
SG_IO passthrough interface and reports per-command latency and throughput
while sweeping the transfer length from --blocks to --maxblocks.

With --table it reads the first block and prints the MBR partition table
instead. WRITE tests overwrite data at --lba; the last write of every
transfer size leaves the range zeroed.`,
		Version:       appversion,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, v)
			if err != nil {
				return err
			}
			if cfg.Table {
				return runTable(cfg, log, os.Stdout)
			}
			return runBench(cfg, log)
		},
	}

	pf := root.PersistentFlags()
	pf.StringP(keyDevice, "d", "", "device node (/dev/sgX)")
	pf.Int64P(keyLBA, "l", 0, "logical block address")
	pf.Int(keyBlockSize, DefaultBlockSize, "logical block size in bytes")
	pf.BoolP(keyVerbose, "v", false, "verbose execution: hex dump commands and buffers")
	pf.String(keyLogFormat, "text", "log format (text, json)")

	f := root.Flags()
	f.IntP(keyBlocks, "b", 1, "number of blocks")
	f.IntP(keyMaxBlocks, "m", 1, "max number of blocks")
	f.IntP(keyCount, "c", 1, "test count")
	f.Int64(keySeed, 0, "seed for write payloads (0 uses the clock)")
	f.BoolP(keyTable, "t", false, "show partition table")
	f.BoolP(keyInquiry, "i", false, "test inquiry")
	f.BoolP(keyWrite, "w", false, "test write")
	f.BoolP(keyRead, "r", false, "test read")

	root.AddCommand(newImageCmd(v))
	return root
}

func newImageCmd(v *viper.Viper) *cobra.Command {
	var (
		length   uint64
		compress string
	)
	cmd := &cobra.Command{
		Use:   "image OUTPUTFILE",
		Short: "Image a block range through passthrough READ(10) into a compressed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, v)
			if err != nil {
				return err
			}
			if int64(cfg.ImageChunk)*int64(cfg.BlockSize) > MaxTransferBytes {
				return fmt.Errorf("%w: chunk of %d blocks exceeds %s", ErrInvalidConfig, cfg.ImageChunk, formatBytes(uint64(MaxTransferBytes)))
			}
			if length == 0 {
				return fmt.Errorf("%w: length must be at least 1 block", ErrInvalidConfig)
			}
			if uint64(cfg.LBA)+length-1 > 0xFFFFFFFF {
				return fmt.Errorf("%w: range ends beyond the 32-bit lba limit", ErrInvalidConfig)
			}
			return runImage(cfg, log, args[0], length, compress)
		},
	}
	cmd.Flags().Uint64VarP(&length, "length", "n", 2048, "number of blocks to image")
	cmd.Flags().Int(keyChunk, 128, "blocks per READ(10) command")
	cmd.Flags().StringVar(&compress, "compress", "zstd", "compression (none, gzip, zlib, bzip2, snappy, s2, zstd, zip)")
	return cmd
}

// setup binds the command's flags, reads the optional config file and
// returns the validated config with the run logger installed as default.
func setup(cmd *cobra.Command, v *viper.Viper) (*Config, *slog.Logger, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, nil, err
	}
	if err := readConfigFile(v); err != nil {
		return nil, nil, err
	}
	cfg, err := newConfig(v)
	if err != nil {
		if errors.Is(err, ErrNoDevice) {
			_ = cmd.Usage()
		}
		return nil, nil, err
	}
	cmd.SilenceUsage = true

	log := newLogger(os.Stderr, cfg.LogFormat, cfg.Verbose).With("run", uuid.NewString(), "device", cfg.Device)
	slog.SetDefault(log)
	log.Debug("configuration", "lba", cfg.LBA, "blocks", cfg.Blocks, "maxblocks", cfg.MaxBlocks,
		"count", cfg.Count, "block_size", cfg.BlockSize, "config_file", v.ConfigFileUsed())
	return cfg, log, nil
}

func openTransport(cfg *Config, log *slog.Logger, dump io.Writer) (*Transport, error) {
	dev, err := OpenDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	observers := []Observer{logObserver{log: log}}
	if cfg.Verbose {
		observers = append(observers, dumpObserver{w: dump, blockSize: cfg.BlockSize})
	}
	return NewTransport(dev, observers...), nil
}

func runBench(cfg *Config, log *slog.Logger) error {
	if !cfg.Inquiry && !cfg.Write && !cfg.Read {
		log.Warn("no test selected, use --inquiry, --write, --read or --table")
		return nil
	}

	writer := uilive.New()
	writer.Start()
	defer writer.Stop()

	t, err := openTransport(cfg, log, writer.Bypass())
	if err != nil {
		return err
	}
	defer t.Close()

	b := NewBench(cfg, t, writer, textReporter{w: writer.Bypass()}, log)
	_, err = b.Run()
	if inq := b.Inquiry(); inq != nil {
		printInquiry(writer.Bypass(), inq)
	}
	return err
}

func runTable(cfg *Config, log *slog.Logger, out io.Writer) error {
	t, err := openTransport(cfg, log, out)
	if err != nil {
		return err
	}
	table, err := ReadPartitionTable(t, cfg.BlockSize)
	if cerr := t.Close(); cerr != nil {
		log.Warn("close device", "err", cerr)
	}
	if err != nil {
		return err
	}

	if !table.Valid() {
		log.Warn("MBR signature missing", "signature", fmt.Sprintf("%#04x", table.Signature))
	}
	if len(table.Entries) == 0 {
		fmt.Fprintln(out, "No partitions found")
		return nil
	}
	printPartitionTable(out, table)
	return nil
}

func runImage(cfg *Config, log *slog.Logger, output string, length uint64, compress string) error {
	writer := uilive.New()
	writer.Start()
	defer writer.Stop()

	t, err := openTransport(cfg, log, writer.Bypass())
	if err != nil {
		return err
	}
	defer t.Close()

	fmt.Fprintf(writer.Bypass(), "Imaging %d blocks from LBA %d of %s\n", length, cfg.LBA, cfg.Device)
	src := newBlockReader(t, cfg.LBA, length, cfg.ImageChunk, cfg.BlockSize)
	stats, err := compressFromReader(src, output, compress, int64(length)*int64(cfg.BlockSize), writer)
	if err != nil {
		return err
	}

	fmt.Fprintf(writer.Bypass(), "Written: %s (%d bytes) to %s\n", formatBytes(stats.Raw), stats.Raw, stats.Path)
	fmt.Fprintf(writer.Bypass(), "Total actual time: %s, Compression ratio: %s, xxhash64: %016x\n",
		stats.Elapsed.Truncate(time.Millisecond), compressionRatio(stats.Raw, stats.Written), stats.Digest)
	return nil
}
