package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpObserverWrite(t *testing.T) {
	var buf bytes.Buffer
	dev := newFakeDevice(4)
	tr := newFakeTransport(dev, time.Millisecond, dumpObserver{w: &buf, blockSize: DefaultBlockSize})

	data := bytes.Repeat([]byte{'A'}, DefaultBlockSize)
	_, err := tr.Write(2, 1, DefaultBlockSize, data)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "WRITE(10) lba=2 blocks=1 cdb:\n")
	assert.Contains(t, out, "00000000  2A 00 00 00 00 02 00 00  01 00 ")
	assert.Contains(t, out, "data out:\n00000400  41 41 41")
	assert.NotContains(t, out, "data in:")
}

func TestDumpObserverRead(t *testing.T) {
	var buf bytes.Buffer
	dev := newFakeDevice(4)
	copy(dev.disk[DefaultBlockSize:], "hello")
	tr := newFakeTransport(dev, time.Millisecond, dumpObserver{w: &buf, blockSize: DefaultBlockSize})

	_, err := tr.Read(1, 1, DefaultBlockSize, make([]byte, DefaultBlockSize))
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "data out:")
	assert.Contains(t, out, "data in:\n00000200  68 65 6C 6C 6F")
	assert.Equal(t, DefaultBlockSize/16+2+1, strings.Count(out, "\n"), "cdb header, cdb line, data header and 32 data lines")
}

func TestLogObserverJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "json", true)
	dev := newFakeDevice(1)
	tr := newFakeTransport(dev, 3*time.Millisecond, logObserver{log: log})

	_, err := tr.Read(0, 1, DefaultBlockSize, make([]byte, DefaultBlockSize))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "command completed", rec["msg"])
	assert.Equal(t, "READ(10) lba=0 blocks=1", rec["cdb"])
	assert.Equal(t, float64(DefaultBlockSize), rec["bytes"])
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "text", false)
	log.Debug("hidden")
	log.Info("shown", "device", "/dev/sg0")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown device=/dev/sg0")
}
