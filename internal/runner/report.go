package runner

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"

	"github.com/GuangYu-yu/edgerank/pkg/types"
)

var csvHeader = []string{
	"rank", "address", "range", "colo", "sent", "received", "loss_rate",
	"min_rtt_ms", "avg_rtt_ms", "ewma_rtt_ms", "bytes", "elapsed_ms",
	"speed_mb_s", "status",
}

// reportEntry is the json lines shape of a ranked result.
type reportEntry struct {
	Rank      int     `json:"rank"`
	Address   string  `json:"address"`
	Range     string  `json:"range,omitempty"`
	Colo      string  `json:"colo,omitempty"`
	Sent      int     `json:"sent"`
	Received  int     `json:"received"`
	LossRate  float64 `json:"loss_rate"`
	MinRTTMs  float64 `json:"min_rtt_ms"`
	AvgRTTMs  float64 `json:"avg_rtt_ms"`
	EWMARTTMs float64 `json:"ewma_rtt_ms"`
	Bytes     int64   `json:"bytes,omitempty"`
	ElapsedMs float64 `json:"elapsed_ms,omitempty"`
	SpeedMBs  float64 `json:"speed_mb_s,omitempty"`
	Status    string  `json:"status,omitempty"`
}

// report writes the ranked results to stdout as a table or json lines,
// and mirrors them to a csv file when an output path is set.
func (r *Runner) report(entries []types.RankedEntry) error {
	if len(entries) == 0 {
		gologger.Info().Msgf("no results to report")
		return nil
	}

	if r.options.JSON {
		if err := writeJSON(os.Stdout, entries); err != nil {
			return errorutil.NewWithErr(err).Msgf("could not encode results")
		}
	} else {
		printTable(entries)
	}

	if r.options.Output != "" {
		if err := r.writeCSV(r.options.Output, entries); err != nil {
			return errorutil.NewWithErr(err).Msgf("could not write %s", r.options.Output)
		}
		gologger.Info().Msgf("results written to %s", r.options.Output)
	}
	return nil
}

func printTable(entries []types.RankedEntry) {
	header := fmt.Sprintf("%-4s %-40s %-6s %-6s %9s %9s %9s %9s  %s",
		"#", "ADDRESS", "COLO", "LOSS", "MIN(MS)", "AVG(MS)", "EWMA(MS)", "MB/S", "STATUS")
	fmt.Println(au.Bold(header))

	for _, entry := range entries {
		colo := entry.Colo
		if colo == "" {
			colo = "-"
		}
		speed := "-"
		status := "-"
		if entry.Throughput != nil {
			speed = fmt.Sprintf("%.2f", entry.Throughput.BytesPerSecond()/(1<<20))
			status = colorStatus(entry.Throughput.Status)
		}
		fmt.Printf("%-4d %-40s %-6s %-6.2f %9s %9s %9s %9s  %s\n",
			entry.Rank, entry.Addr, colo, entry.LossRate(),
			formatMillis(entry.MinRTT), formatMillis(entry.AvgRTT), formatMillis(entry.EWMARTT),
			speed, status)
	}
}

// colorStatus renders the transfer status for the table. The status sits in
// the last column so the escape codes cannot skew the alignment.
func colorStatus(status types.TransferStatus) string {
	switch status {
	case types.StatusCompleted:
		return au.Green(status.String()).String()
	case types.StatusTimedOut:
		return au.Yellow(status.String()).String()
	default:
		return au.Red(status.String()).String()
	}
}

// writeCSV writes the results to path, prefixed by a comment line carrying
// the run id and timestamp so result files remain attributable.
func (r *Runner) writeCSV(path string, entries []types.RankedEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	if _, err := fmt.Fprintf(file, "# run %s %s\n", r.runID, time.Now().Format(time.RFC3339)); err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write(csvRow(entry)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvRow(entry types.RankedEntry) []string {
	row := []string{
		strconv.Itoa(entry.Rank),
		entry.Addr.String(),
		entry.Range,
		entry.Colo,
		strconv.Itoa(entry.Sent),
		strconv.Itoa(entry.Received),
		strconv.FormatFloat(entry.LossRate(), 'f', 2, 64),
		formatMillis(entry.MinRTT),
		formatMillis(entry.AvgRTT),
		formatMillis(entry.EWMARTT),
	}
	if entry.Throughput != nil {
		row = append(row,
			strconv.FormatInt(entry.Throughput.Bytes, 10),
			formatMillis(entry.Throughput.Elapsed),
			strconv.FormatFloat(entry.Throughput.BytesPerSecond()/(1<<20), 'f', 2, 64),
			entry.Throughput.Status.String(),
		)
	} else {
		row = append(row, "", "", "", "")
	}
	return row
}

func writeJSON(w io.Writer, entries []types.RankedEntry) error {
	encoder := json.NewEncoder(w)
	for _, entry := range entries {
		out := reportEntry{
			Rank:      entry.Rank,
			Address:   entry.Addr.String(),
			Range:     entry.Range,
			Colo:      entry.Colo,
			Sent:      entry.Sent,
			Received:  entry.Received,
			LossRate:  entry.LossRate(),
			MinRTTMs:  millis(entry.MinRTT),
			AvgRTTMs:  millis(entry.AvgRTT),
			EWMARTTMs: millis(entry.EWMARTT),
		}
		if entry.Throughput != nil {
			out.Bytes = entry.Throughput.Bytes
			out.ElapsedMs = millis(entry.Throughput.Elapsed)
			out.SpeedMBs = entry.Throughput.BytesPerSecond() / (1 << 20)
			out.Status = entry.Throughput.Status.String()
		}
		if err := encoder.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func formatMillis(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return strconv.FormatFloat(millis(d), 'f', 1, 64)
}
