package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/timeslots-api/internal/models"
)

type cliOptions struct {
	output  string
	verbose bool
	logger  *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &cliOptions{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "slotctl",
		Short: "Partition time ranges into slots and check interval overlaps",
		Long: `slotctl runs the slot engine offline.

Instants are RFC 3339 timestamps or epoch milliseconds. Intervals are written
as "start,end".

Examples:
  slotctl partition --start 2024-01-01T09:00:00Z --end 2024-01-01T11:00:00Z \
    --unavailable 2024-01-01T09:45:00Z,2024-01-01T10:15:00Z

  slotctl overlap --a 2024-01-01T09:00:00Z,2024-01-01T10:00:00Z \
    --b 2024-01-01T10:00:00Z,2024-01-01T11:00:00Z --inclusive
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case "json", "yaml":
			default:
				return fmt.Errorf("unsupported output %q, want json or yaml", opts.output)
			}
			if opts.verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				opts.logger = logger
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "Output format: json or yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log engine decisions to stderr")

	root.AddCommand(newPartitionCmd(opts), newOverlapCmd(opts), newTokenCmd(opts))
	return root
}

// slotView is the printable form of a slot.
type slotView struct {
	ID        string         `json:"id" yaml:"id"`
	Start     string         `json:"start" yaml:"start"`
	End       string         `json:"end" yaml:"end"`
	Length    int64          `json:"length" yaml:"length"`
	Available bool           `json:"available" yaml:"available"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func viewSlots(slots []models.Slot) []slotView {
	out := make([]slotView, len(slots))
	for i, s := range slots {
		out[i] = slotView{
			ID:        s.ID,
			Start:     s.Start.UTC().Format(time.RFC3339),
			End:       s.End.UTC().Format(time.RFC3339),
			Length:    s.Length,
			Available: s.IsAvailable,
			Metadata:  s.Metadata,
		}
	}
	return out
}

func render(w io.Writer, format string, v interface{}) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return models.InstantFromMillis(ms).Time, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("instant %q: expected RFC 3339 or epoch milliseconds", raw)
	}
	return t, nil
}

func parseInterval(raw string) (models.RawInterval, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return models.RawInterval{}, fmt.Errorf("interval %q: expected start,end", raw)
	}
	start, err := parseInstant(parts[0])
	if err != nil {
		return models.RawInterval{}, err
	}
	end, err := parseInstant(parts[1])
	if err != nil {
		return models.RawInterval{}, err
	}
	return models.NewRawInterval(start, end), nil
}

func parseIntervals(raws []string) ([]models.RawInterval, error) {
	out := make([]models.RawInterval, 0, len(raws))
	for _, raw := range raws {
		interval, err := parseInterval(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, interval)
	}
	return out, nil
}
