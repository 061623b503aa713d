package main

import (
	"fmt"
	"sort"

	"lyrics-resolver-go/services/lrcfilter"

	"github.com/spf13/cobra"
)

func init() {
	cmdRoot.AddCommand(cmdFilter())
}

func cmdFilter() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "filter [file]",
		Short:        "Strip credits and metadata lines from LRC lyrics",
		Long:         "Run the lyric line filter over LRC text read from file, or stdin when no file is given.",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, _ := cmd.Flags().GetBool("report")

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			cleaned, r := lrcfilter.New().Run(input)
			fmt.Fprintln(cmd.OutOrStdout(), cleaned)

			if report {
				printReport(cmd, r)
			}
			return nil
		},
	}
	cmd.Flags().Bool("report", false, "print per-pass drop counts to stderr")
	return cmd
}

func printReport(cmd *cobra.Command, r lrcfilter.Report) {
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "parsed %d timed line(s)\n", r.Parsed)

	passes := make([]string, 0, len(r.Dropped))
	for name := range r.Dropped {
		passes = append(passes, name)
	}
	sort.Strings(passes)
	for _, name := range passes {
		fmt.Fprintf(out, "  %-18s dropped %d\n", name, r.Dropped[name])
	}
	for _, text := range r.RemovedColonText {
		fmt.Fprintf(out, "  removed: %s\n", text)
	}
}
