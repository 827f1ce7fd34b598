package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Reporter receives each result as soon as its phase finishes.
type Reporter interface {
	Report(r Result)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(r Result)

func (f ReporterFunc) Report(r Result) { f(r) }

// Bench drives the transfer-size sweep against one transport.
type Bench struct {
	cfg      *Config
	t        *Transport
	rng      *rand.Rand
	progress io.Writer
	reporter Reporter
	log      *slog.Logger

	inquiry *InquiryData
}

// NewBench prepares a benchmark. The payload generator is seeded once from
// cfg.Seed, or from the clock when the seed is zero.
func NewBench(cfg *Config, t *Transport, progress io.Writer, reporter Reporter, log *slog.Logger) *Bench {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if progress == nil {
		progress = io.Discard
	}
	if reporter == nil {
		reporter = ReporterFunc(func(Result) {})
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bench{
		cfg:      cfg,
		t:        t,
		rng:      rand.New(rand.NewSource(seed)),
		progress: progress,
		reporter: reporter,
		log:      log.With("seed", seed),
	}
}

// Inquiry returns the identification decoded from the first INQUIRY, if any.
func (b *Bench) Inquiry() *InquiryData {
	return b.inquiry
}

// Run executes every enabled phase. Inquiry and write failures close the
// device and end the run with the transport error. Read failures are
// recorded in the result and the sweep moves on.
func (b *Bench) Run() ([]Result, error) {
	var results []Result
	emit := func(r Result) {
		results = append(results, r)
		b.reporter.Report(r)
	}

	if b.cfg.Inquiry {
		r := b.runInquiry()
		emit(r)
		if r.Err != nil {
			return results, b.abort(r)
		}
	}

	for _, n := range b.cfg.Sizes() {
		if b.cfg.Write {
			r := b.runWrite(n)
			emit(r)
			if r.Err != nil {
				return results, b.abort(r)
			}
		}
		if b.cfg.Read {
			r := b.runRead(n)
			emit(r)
			if r.Err != nil {
				b.log.Warn("read phase failed, continuing", "blocks", n, "trials", r.Trials, "err", r.Err)
			}
		}
	}

	return results, nil
}

func (b *Bench) abort(r Result) error {
	b.log.Error("fatal transport failure, closing device", "phase", r.Phase, "blocks", r.Blocks, "err", r.Err)
	if err := b.t.Close(); err != nil {
		b.log.Warn("close device", "err", err)
	}
	return r.Err
}

func (b *Bench) runInquiry() Result {
	buf := make([]byte, b.cfg.BlockSize*inquiryBlocks)
	res := Result{Phase: PhaseInquiry, CommandBytes: len(buf)}
	for i := 0; i < b.cfg.Count; i++ {
		fmt.Fprintf(b.progress, "inquiry count: %d\n", i+1)
		d, err := b.t.Inquiry(buf)
		if err != nil {
			res.Err = err
			break
		}
		if b.inquiry == nil {
			if inq, ok := parseInquiry(buf); ok {
				b.inquiry = &inq
			}
		}
		res.Trials++
		res.TotalDuration += d
	}
	return finish(res)
}

func (b *Bench) runWrite(n int) Result {
	size := b.cfg.BlockSize * n
	buf := make([]byte, size)
	res := Result{Phase: PhaseWrite, Blocks: n, CommandBytes: size}
	for i := 0; i < b.cfg.Count; i++ {
		b.fillPayload(buf, i == b.cfg.Count-1)
		fmt.Fprintf(b.progress, "write count: %d\n", i+1)
		d, err := b.t.Write(b.cfg.LBA, uint16(n), b.cfg.BlockSize, buf)
		if err != nil {
			res.Err = err
			break
		}
		res.Trials++
		res.TotalDuration += d
		res.TotalBytes += int64(size)
	}
	return finish(res)
}

func (b *Bench) runRead(n int) Result {
	size := b.cfg.BlockSize * n
	buf := make([]byte, size)
	res := Result{Phase: PhaseRead, Blocks: n, CommandBytes: size}
	for i := 0; i < b.cfg.Count; i++ {
		fmt.Fprintf(b.progress, "read count: %d\n", i+1)
		d, err := b.t.Read(b.cfg.LBA, uint16(n), b.cfg.BlockSize, buf)
		if err != nil {
			res.Err = err
			break
		}
		res.Trials++
		res.TotalDuration += d
		res.TotalBytes += int64(size)
	}
	return finish(res)
}

// fillPayload writes pseudo-random bytes into buf, or zeroes it for the
// final trial so the target range is left cleared.
func (b *Bench) fillPayload(buf []byte, last bool) {
	if last {
		clear(buf)
		return
	}
	b.rng.Read(buf)
}

func finish(r Result) Result {
	if r.Phase == PhaseInquiry {
		r.TotalBytes = int64(r.CommandBytes) * int64(r.Trials)
	}
	if r.Trials > 0 {
		r.AvgDuration = r.TotalDuration / time.Duration(r.Trials)
	}
	r.Throughput = throughput(r.TotalBytes, r.TotalDuration)
	return r
}

// throughput returns KB/s for bytes moved in d, or NaN when d is zero.
func throughput(bytes int64, d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	if ms <= 0 || bytes <= 0 {
		return math.NaN()
	}
	v := (float64(bytes) / kb) / (ms / 1000)
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// parseInquiry extracts identification strings from standard INQUIRY data.
func parseInquiry(data []byte) (InquiryData, bool) {
	if len(data) < 36 {
		return InquiryData{}, false
	}
	return InquiryData{
		DeviceType: data[0] & 0x1f,
		Vendor:     strings.TrimSpace(string(data[8:16])),
		Product:    strings.TrimSpace(string(data[16:32])),
		Revision:   strings.TrimSpace(string(data[32:36])),
	}, true
}
