package main

import (
	"fmt"
	"io"
	"strings"
)

func isPrintable(b byte) bool {
	return b >= 32 && b <= 126
}

// hexDump writes buf as offset, hex and ASCII columns. Offsets start at base.
func hexDump(w io.Writer, desc string, buf []byte, base int64) {
	if desc != "" {
		fmt.Fprintf(w, "%s:\n", desc)
	}
	for i := 0; i < len(buf); i += 16 {
		var hexStr, charStr strings.Builder
		for j := 0; j < 16 && i+j < len(buf); j++ {
			b := buf[i+j]
			fmt.Fprintf(&hexStr, "%02X ", b)
			if j == 7 {
				hexStr.WriteByte(' ') // Extra space after 8 bytes
			}
			if isPrintable(b) {
				charStr.WriteByte(b)
			} else {
				charStr.WriteByte('.')
			}
		}
		fmt.Fprintf(w, "%08X  %-49s  |%s|\n", base+int64(i), hexStr.String(), charStr.String())
	}
}

// formatBytes renders n using the largest unit it reaches.
func formatBytes[T dataSizeNumber](n T) string {
	v := uint64(n)
	for _, u := range units {
		if v >= u.Threshold {
			if u.Threshold == 1 {
				return fmt.Sprintf("%d %s", v, u.Name)
			}
			return fmt.Sprintf("%.2f %s", float64(v)/float64(u.Threshold), u.Name)
		}
	}
	return fmt.Sprintf("%d bytes", v)
}

// formatSpeed renders a bytes-per-second rate.
func formatSpeed(bps float64) string {
	if bps <= 0 {
		return "N/A"
	}
	return formatBytes(uint64(bps)) + "/s"
}
