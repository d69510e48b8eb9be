package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discgeo/discgeo/internal/geoquery"
	"github.com/discgeo/discgeo/internal/model"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query ingested geographies",
	Long:  "Runs containment and hierarchy queries over previously ingested boundaries.",
}

// withEngine opens the store and hands a query engine to fn.
func withEngine(cmd *cobra.Command, fn func(*geoquery.Engine) error) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(geoquery.NewEngine(s))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, eris.Errorf("invalid geography id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var queryLookupCmd = &cobra.Command{
	Use:   "lookup <id>",
	Short: "Look up a geography by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withEngine(cmd, func(e *geoquery.Engine) error {
			g, err := e.GeographyByID(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			return printJSON(g)
		})
	},
}

var queryNameType string

var queryNameCmd = &cobra.Command{
	Use:   "name <name>",
	Short: "Look up a geography by exact name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := model.GeoType(strings.ToUpper(queryNameType))
		return withEngine(cmd, func(e *geoquery.Engine) error {
			g, err := e.GeographyByExactName(cmd.Context(), args[0], t)
			if err != nil {
				return err
			}
			return printJSON(g)
		})
	},
}

var queryZipCmd = &cobra.Command{
	Use:   "zip <zipcode>",
	Short: "List courses inside a zipcode boundary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(e *geoquery.Engine) error {
			res, err := e.CoursesInZipcode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var queryWithinCmd = &cobra.Command{
	Use:   "within <boundary-id> [boundary-id...]",
	Short: "List courses inside one or more boundaries",
	Long:  "Tests every geocoded course against each requested boundary. A course inside several requested boundaries is listed once per boundary.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withEngine(cmd, func(e *geoquery.Engine) error {
			res, err := e.CoursesWithinMany(cmd.Context(), ids)
			if err != nil {
				return err
			}
			zap.L().Info("containment query complete",
				zap.Int("courses", len(res.Courses)),
				zap.Int("boundaries", len(res.Geographies)),
			)
			return printJSON(res)
		})
	},
}

var queryCountiesCmd = &cobra.Command{
	Use:   "counties <state-id> [state-id...]",
	Short: "List counties belonging to the given states",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withEngine(cmd, func(e *geoquery.Engine) error {
			counties, err := e.CountiesForStates(cmd.Context(), ids)
			if err != nil {
				return err
			}
			return printJSON(counties)
		})
	},
}

var queryStatesBoundaries bool

var queryStatesCmd = &cobra.Command{
	Use:   "states",
	Short: "List ingested states",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEngine(cmd, func(e *geoquery.Engine) error {
			states, err := e.States(cmd.Context(), queryStatesBoundaries)
			if err != nil {
				return err
			}
			return printJSON(states)
		})
	},
}

func init() {
	queryNameCmd.Flags().StringVar(&queryNameType, "type", "ZIPCODE", "geography type: STATE, COUNTY, or ZIPCODE")
	queryStatesCmd.Flags().BoolVar(&queryStatesBoundaries, "boundaries", false, "include projected boundary vertices")
	queryCmd.AddCommand(queryLookupCmd)
	queryCmd.AddCommand(queryNameCmd)
	queryCmd.AddCommand(queryZipCmd)
	queryCmd.AddCommand(queryWithinCmd)
	queryCmd.AddCommand(queryCountiesCmd)
	queryCmd.AddCommand(queryStatesCmd)
	rootCmd.AddCommand(queryCmd)
}
