package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

// getCompressionExtension returns the file extension for a given compression algorithm
func getCompressionExtension(compressionAlgorithm string) (string, error) {
	switch compressionAlgorithm {
	case "none":
		return "", nil
	case "gzip":
		return ".gz", nil
	case "zlib":
		return ".zlib", nil
	case "bzip2":
		return ".bz2", nil
	case "snappy":
		return ".snappy", nil
	case "s2":
		return ".s2", nil
	case "zstd":
		return ".zst", nil
	case "zip":
		return ".zip", nil
	default:
		return "", fmt.Errorf("unsupported compression algorithm: %s", compressionAlgorithm)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// createCompressionWriter wraps output with the chosen compressor. Closing
// the returned writer flushes the stream but leaves output open.
func createCompressionWriter(algorithm string, output io.Writer) (io.WriteCloser, error) {
	switch algorithm {
	case "none":
		return nopWriteCloser{output}, nil
	case "gzip":
		return gzip.NewWriter(output), nil
	case "zlib":
		return zlib.NewWriter(output), nil
	case "bzip2":
		return bzip2.NewWriter(output, &bzip2.WriterConfig{})
	case "snappy":
		return snappy.NewBufferedWriter(output), nil
	case "s2":
		return s2.NewWriter(output), nil
	case "zstd":
		return zstd.NewWriter(output)
	case "zip":
		zipWriter := zip.NewWriter(output)
		zipFile, err := zipWriter.Create("image.raw")
		if err != nil {
			_ = zipWriter.Close()
			return nil, fmt.Errorf("failed to create zip entry: %w", err)
		}
		return &zipEntryWriter{Writer: zipFile, zw: zipWriter}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
	}
}

type zipEntryWriter struct {
	io.Writer
	zw *zip.Writer
}

func (z *zipEntryWriter) Close() error {
	return z.zw.Close()
}

// blockReader streams an LBA range from a transport, chunk blocks per READ(10).
type blockReader struct {
	t         *Transport
	next      uint64
	remaining uint64
	chunk     int
	blockSize int
	buf       []byte
	pending   []byte
}

func newBlockReader(t *Transport, lba uint32, count uint64, chunk, blockSize int) *blockReader {
	return &blockReader{
		t:         t,
		next:      uint64(lba),
		remaining: count,
		chunk:     chunk,
		blockSize: blockSize,
		buf:       make([]byte, chunk*blockSize),
	}
}

func (r *blockReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.remaining == 0 {
			return 0, io.EOF
		}
		if r.next > 0xFFFFFFFF {
			return 0, fmt.Errorf("lba %d does not fit in a 10-byte cdb", r.next)
		}
		n := uint64(r.chunk)
		if n > r.remaining {
			n = r.remaining
		}
		buf := r.buf[:int(n)*r.blockSize]
		if _, err := r.t.Read(uint32(r.next), uint16(n), r.blockSize, buf); err != nil {
			return 0, err
		}
		r.next += n
		r.remaining -= n
		r.pending = buf
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// imageStats summarises a finished image.
type imageStats struct {
	Path    string
	Raw     int64
	Written int64
	Digest  uint64
	Elapsed time.Duration
}

// compressFromReader copies src through the chosen compressor into outputfile
// plus the algorithm's extension, printing progress to progress every second.
func compressFromReader(src io.Reader, outputfile, compressionAlgorithm string, totalSize int64, progress io.Writer) (*imageStats, error) {
	extension, err := getCompressionExtension(compressionAlgorithm)
	if err != nil {
		return nil, err
	}
	outputfile = outputfile + extension

	output, err := os.Create(outputfile)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		_ = output.Close()
	}()

	cw := &countingWriter{w: output}
	compressedWriter, err := createCompressionWriter(compressionAlgorithm, cw)
	if err != nil {
		return nil, fmt.Errorf("failed to create compression writer: %w", err)
	}

	digest := xxhash.New()
	src = io.TeeReader(src, digest)

	start := time.Now()
	var (
		bytesRead  int64
		buf        = make([]byte, 16384)
		lastUpdate = time.Now()
	)

	for {
		n, rErr := src.Read(buf)
		if n > 0 {
			if _, wErr := compressedWriter.Write(buf[:n]); wErr != nil {
				return nil, fmt.Errorf("failed to write compressed stream: %w", wErr)
			}
			bytesRead += int64(n)

			if time.Since(lastUpdate) >= time.Second {
				printImageProgress(progress, start, bytesRead, cw.count, totalSize)
				lastUpdate = time.Now()
			}
		}
		if rErr == io.EOF {
			break
		}
		if rErr != nil {
			return nil, fmt.Errorf("error reading from device: %w", rErr)
		}
	}

	if err := compressedWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish compressed stream: %w", err)
	}
	printImageProgress(progress, start, bytesRead, cw.count, totalSize)

	return &imageStats{
		Path:    outputfile,
		Raw:     bytesRead,
		Written: cw.count,
		Digest:  digest.Sum64(),
		Elapsed: time.Since(start),
	}, nil
}

func printImageProgress(w io.Writer, start time.Time, read, written, total int64) {
	elapsedSeconds := time.Since(start).Seconds()
	estimateStr := "N/A"
	if total > 0 && read > 0 && elapsedSeconds > 0 {
		rate := float64(read) / elapsedSeconds
		remaining := float64(total-read) / rate
		if remaining < 0 {
			remaining = 0
		}
		estimateStr = time.Duration(remaining * float64(time.Second)).Truncate(time.Second).String()
	}

	var readBps, writeBps float64
	if elapsedSeconds > 0 {
		readBps = float64(read) / elapsedSeconds
		writeBps = float64(written) / elapsedSeconds
	}

	fmt.Fprintf(w, "Byte Count: Read: %s (%d bytes), Written: %s (%d bytes)\n",
		formatBytes(read), read, formatBytes(written), written)
	fmt.Fprintf(w, "Elapsed Time: %s\n", time.Since(start).Truncate(time.Second))
	fmt.Fprintf(w, "Estimated Time: %s\n", estimateStr)
	fmt.Fprintf(w, "Read Speed: %s\n", formatSpeed(readBps))
	fmt.Fprintf(w, "Write Speed: %s\n", formatSpeed(writeBps))
	if f, ok := w.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}

// compressionRatio renders raw:written, or N/A for an empty output.
func compressionRatio(raw, written int64) string {
	if written <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f:1", float64(raw)/float64(written))
}
