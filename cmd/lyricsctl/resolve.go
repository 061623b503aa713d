package main

import (
	"context"
	"os"
	"os/signal"

	"lyrics-resolver-go/circuitbreaker"
	"lyrics-resolver-go/config"
	"lyrics-resolver-go/services/catalog/qqmusic"
	"lyrics-resolver-go/services/mapping"
	"lyrics-resolver-go/services/resolver"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func init() {
	cmdRoot.AddCommand(cmdResolve())
}

func cmdResolve() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "resolve",
		Short:        "Resolve a track and print the result as JSON",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				track, _       = cmd.Flags().GetString("track")
				artist, _      = cmd.Flags().GetString("artist")
				catalogID, _   = cmd.Flags().GetString("id")
				mappingFile, _ = cmd.Flags().GetString("mappings")
				concurrent, _  = cmd.Flags().GetBool("concurrent")
			)

			conf := config.Get()
			if mappingFile == "" {
				mappingFile = conf.Configuration.SongMappingFile
			}

			q, err := resolver.NewQuery(track, artist)
			if err != nil {
				return err
			}

			mappings, err := mapping.Load(mappingFile)
			if err != nil {
				return err
			}

			breaker := circuitbreaker.New(circuitbreaker.Config{
				Name:      "Catalog",
				Threshold: conf.Configuration.CircuitBreakerThreshold,
				Cooldown:  conf.CircuitBreakerCooldown(),
			})
			r := resolver.New(qqmusic.NewFromConfig(conf, breaker),
				resolver.WithMappings(mappings),
				resolver.WithStrategyDelay(conf.StrategyDelay()),
				resolver.WithConcurrentSearch(concurrent || conf.FeatureFlags.ConcurrentSearch),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var result *resolver.Result
			if catalogID != "" {
				result, err = r.ResolveCatalogID(ctx, catalogID, q)
			} else {
				result, err = r.Resolve(ctx, q)
			}
			if err != nil {
				return err
			}

			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringP("track", "t", "", "track title")
	cmd.Flags().StringP("artist", "a", "", "artist names, separated by ',' or '&'")
	cmd.Flags().String("id", "", "catalog id; skips search")
	cmd.Flags().String("mappings", "", "JSON file of extra title_artist -> catalog id mappings")
	cmd.Flags().Bool("concurrent", false, "run the keyword searches of a strategy concurrently")
	cmd.MarkFlagRequired("track")
	cmd.MarkFlagRequired("artist")
	return cmd
}
