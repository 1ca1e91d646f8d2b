package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/timeslots-api/internal/timeslot"
)

func newPartitionCmd(opts *cliOptions) *cobra.Command {
	var (
		start, end  string
		length      int64
		unavailable []string
		inclusive   bool
		maxSlots    int
	)
	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Cut a range into slots and resolve their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseInstant(start)
			if err != nil {
				return err
			}
			to, err := parseInstant(end)
			if err != nil {
				return err
			}
			raws, err := parseIntervals(unavailable)
			if err != nil {
				return err
			}
			// Only an unset flag means the default length; an explicit 0 is an error.
			count, err := timeslot.SlotCount(from, to, length)
			if err != nil {
				return err
			}
			if count > maxSlots {
				return fmt.Errorf("range yields %d slots, limit is %d (raise --max-slots)", count, maxSlots)
			}
			store, err := timeslot.NewStore(timeslot.StoreConfig{
				Start:       from,
				End:         to,
				SlotLength:  length,
				Unavailable: raws,
				Inclusive:   inclusive,
			})
			if err != nil {
				return err
			}
			slots := store.Slots()
			opts.logger.Debug("range partitioned",
				zap.Int("slots", len(slots)),
				zap.Int("unavailable", len(raws)),
				zap.Int64("slot_length", store.SlotLength()),
			)
			return render(cmd.OutOrStdout(), opts.output, viewSlots(slots))
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Range start")
	cmd.Flags().StringVar(&end, "end", "", "Range end")
	cmd.Flags().Int64Var(&length, "length", timeslot.DefaultSlotLength, "Slot length in seconds")
	cmd.Flags().StringArrayVar(&unavailable, "unavailable", nil, "Unavailable interval start,end (repeatable)")
	cmd.Flags().BoolVar(&inclusive, "inclusive", false, "Treat touching intervals as overlapping")
	cmd.Flags().IntVar(&maxSlots, "max-slots", 10000, "Refuse ranges that yield more slots than this")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
