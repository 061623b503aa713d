package main

import (
	"fmt"
	"strings"

	"lyrics-resolver-go/services/yrc"

	"github.com/spf13/cobra"
)

func init() {
	cmdRoot.AddCommand(cmdDecode())
}

func cmdDecode() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "decode [file]",
		Short:        "Decode a word-timed lyric transport envelope",
		Long:         "Decode a word-timed lyric transport envelope read from file, or stdin when no file is given.",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				key, _     = cmd.Flags().GetString("key")
				payload, _ = cmd.Flags().GetBool("payload")
			)

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if payload {
				input = yrc.Envelope(strings.TrimSpace(input))
			}

			text, err := yrc.New(yrc.WithKey(key)).DecodeStrict(input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().String("key", yrc.TransportKey, "transport key")
	cmd.Flags().Bool("payload", false, "input is a bare hex payload instead of an XML envelope")
	return cmd
}
