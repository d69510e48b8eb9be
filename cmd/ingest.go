package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discgeo/discgeo/internal/ingest"
)

var ingestFormat string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest boundary files",
	Long:  "Reads boundary features from GeoJSON or shapefile sources and persists geography records.",
}

// openSource opens path in the format selected by --format. "auto"
// picks by extension: .shp is a shapefile, .ndjson/.jsonl a feature
// stream, anything else a FeatureCollection document.
func openSource(path string) (ingest.Source, error) {
	format := ingestFormat
	if format == "auto" {
		switch {
		case strings.HasSuffix(path, ".shp"):
			format = "shapefile"
		case strings.HasSuffix(path, ".ndjson"), strings.HasSuffix(path, ".jsonl"):
			format = "stream"
		default:
			format = "collection"
		}
	}

	switch format {
	case "collection":
		return ingest.OpenCollection(path)
	case "stream":
		return ingest.OpenStream(path)
	case "shapefile":
		return ingest.OpenShapefile(path)
	}
	return nil, eris.Errorf("unknown source format %q", format)
}

var ingestStatesCmd = &cobra.Command{
	Use:   "states <boundary-file>",
	Short: "Ingest state boundaries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		src, err := openSource(args[0])
		if err != nil {
			return err
		}

		res, err := ingest.NewPipeline(s).IngestStates(ctx, src, args[0])
		if err != nil {
			return eris.Wrap(err, "ingest states")
		}
		zap.L().Info("states ingested", zap.Int("loaded", res.Loaded), zap.Int("skipped", res.Skipped))
		return nil
	},
}

var countiesStatesFile string

var ingestCountiesCmd = &cobra.Command{
	Use:   "counties <county-file> --states-file <state-file>",
	Short: "Ingest county boundaries and link them to states",
	Long:  "Reads the state boundary file once to build the state code lookup, then ingests each county and records its parent state relationship. States must be ingested and the state code table seeded first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		stateSrc, err := openSource(countiesStatesFile)
		if err != nil {
			return err
		}
		stateNames, err := ingest.ReadStateNames(stateSrc)
		stateSrc.Close()
		if err != nil {
			return eris.Wrap(err, "read state names")
		}

		src, err := openSource(args[0])
		if err != nil {
			return err
		}

		res, err := ingest.NewPipeline(s).IngestCounties(ctx, src, args[0], stateNames)
		if err != nil {
			return eris.Wrap(err, "ingest counties")
		}
		zap.L().Info("counties ingested", zap.Int("loaded", res.Loaded), zap.Int("skipped", res.Skipped))
		return nil
	},
}

var zipsStopAfter string

var ingestZipsCmd = &cobra.Command{
	Use:   "zips <boundary-file>",
	Short: "Ingest zipcode boundaries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		src, err := openSource(args[0])
		if err != nil {
			return err
		}

		stopAt := cfg.Ingest.ZipStopCode
		if zipsStopAfter != "" {
			stopAt = zipsStopAfter
		}
		opts := ingest.IngestZipsOptions{StopAtZip: stopAt}
		res, err := ingest.NewPipeline(s).IngestZips(ctx, src, args[0], opts)
		if err != nil {
			return eris.Wrap(err, "ingest zips")
		}
		zap.L().Info("zipcodes ingested", zap.Int("loaded", res.Loaded), zap.Int("skipped", res.Skipped))
		return nil
	},
}

func init() {
	ingestCmd.PersistentFlags().StringVar(&ingestFormat, "format", "auto",
		"source format: auto, collection, stream, or shapefile")
	ingestCountiesCmd.Flags().StringVar(&countiesStatesFile, "states-file", "",
		"state boundary file used to build the code-to-name lookup")
	_ = ingestCountiesCmd.MarkFlagRequired("states-file")
	ingestZipsCmd.Flags().StringVar(&zipsStopAfter, "stop-after", "",
		"stop the run after ingesting this zip code (overrides config)")
	ingestCmd.AddCommand(ingestStatesCmd)
	ingestCmd.AddCommand(ingestCountiesCmd)
	ingestCmd.AddCommand(ingestZipsCmd)
	rootCmd.AddCommand(ingestCmd)
}
