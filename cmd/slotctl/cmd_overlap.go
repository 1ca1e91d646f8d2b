package main

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/timeslots-api/internal/timeslot"
)

type overlapView struct {
	Overlaps    bool       `json:"overlaps" yaml:"overlaps"`
	Overlapping []slotView `json:"overlapping" yaml:"overlapping"`
}

func newOverlapCmd(opts *cliOptions) *cobra.Command {
	var (
		a         string
		b         []string
		inclusive bool
	)
	cmd := &cobra.Command{
		Use:   "overlap",
		Short: "Report which intervals overlap a reference interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseInterval(a)
			if err != nil {
				return err
			}
			target, err := timeslot.NormalizeSlot(ref)
			if err != nil {
				return err
			}
			raws, err := parseIntervals(b)
			if err != nil {
				return err
			}
			candidates, err := timeslot.NormalizeSlots(raws)
			if err != nil {
				return err
			}
			hits := timeslot.FilterOverlapping(target.Range(), candidates, inclusive)
			return render(cmd.OutOrStdout(), opts.output, overlapView{
				Overlaps:    len(hits) > 0,
				Overlapping: viewSlots(hits),
			})
		},
	}
	cmd.Flags().StringVar(&a, "a", "", "Reference interval start,end")
	cmd.Flags().StringArrayVar(&b, "b", nil, "Candidate interval start,end (repeatable)")
	cmd.Flags().BoolVar(&inclusive, "inclusive", false, "Treat touching intervals as overlapping")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	return cmd
}
