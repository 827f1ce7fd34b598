package main

import (
	"fmt"
	"io"
	"math"
	"time"
)

// textReporter prints one fixed-width line per result.
type textReporter struct {
	w io.Writer
}

func (r textReporter) Report(res Result) {
	fmt.Fprintln(r.w, formatResult(res))
	if res.Err != nil {
		fmt.Fprintf(r.w, "(%s) failed after %d trial(s): %v\n", res.Phase, res.Trials, res.Err)
	}
}

func formatResult(r Result) string {
	if r.Phase == PhaseInquiry {
		return fmt.Sprintf("(INQUIRY) test time: %d ms, aver cmd time: %d ms, averspeed: %s",
			millis(r.TotalDuration), millis(r.AvgDuration), formatThroughput(r.Throughput))
	}
	label := fmt.Sprintf("(%s)", r.Phase)
	return fmt.Sprintf("%-7s blocks: %3d (%5d), data: %8d B, test time: %6d ms, aver cmd time: %3d ms, averspeed: %s",
		label, r.Blocks, r.CommandBytes, r.TotalBytes,
		millis(r.TotalDuration), millis(r.AvgDuration), formatThroughput(r.Throughput))
}

func formatThroughput(kbps float64) string {
	if math.IsNaN(kbps) || math.IsInf(kbps, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f KB/s", kbps)
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}

// printInquiry prints the identification of the device under test.
func printInquiry(w io.Writer, inq *InquiryData) {
	fmt.Fprintf(w, "Vendor: %s, Product: %s, Revision: %s, Type: %#02x\n",
		inq.Vendor, inq.Product, inq.Revision, inq.DeviceType)
}

// printPartitionTable prints one block per non-empty entry.
func printPartitionTable(w io.Writer, table *PartitionTable) {
	for _, p := range table.Entries {
		fmt.Fprintf(w, "\nPartition %d\n", p.Slot)
		fmt.Fprintf(w, "\tstatus: %02x\n", p.Status)
		fmt.Fprintf(w, "\tCHS address: %02x\n", p.CHS)
		if isExtendedType(p.Type) {
			fmt.Fprintf(w, "\ttype: %02x (Extended)\n", p.Type)
		} else {
			fmt.Fprintf(w, "\ttype: %02x\n", p.Type)
		}
		fmt.Fprintf(w, "\toffset: %x (%d)\n", p.StartLBA, p.StartLBA)
		fmt.Fprintf(w, "\tsectors: %x (%d)\n", p.Sectors, p.Sectors)
	}
}
