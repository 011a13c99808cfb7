package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/placesmcp/pkg/geo"
)

func newPolylineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polyline",
		Short: "Inspect encoded route polylines",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "decode <encoded>",
		Short: "Decode a polyline into one lat,lng pair per line",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			points := geo.DecodePolyline(args[0])
			out := cmd.OutOrStdout()
			for _, pt := range points {
				fmt.Fprintf(out, "%.5f,%.5f\n", pt.Latitude, pt.Longitude)
			}
			if bb := geo.BoundingBoxFor(points); bb != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d points, viewport %s\n", len(points), bb)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "encode <lat,lng>...",
		Short: "Encode coordinates into a polyline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points := make([]geo.Coordinate, 0, len(args))
			for _, arg := range args {
				c, err := parseLatLng(arg)
				if err != nil {
					return err
				}
				points = append(points, c)
			}
			fmt.Fprintln(cmd.OutOrStdout(), geo.EncodePolyline(points))
			return nil
		},
	})

	return cmd
}

func parseLatLng(s string) (geo.Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("expected lat,lng but got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	c := geo.Coordinate{Latitude: lat, Longitude: lng}
	if err := geo.ValidateCoordinate(c); err != nil {
		return geo.Coordinate{}, err
	}
	return c, nil
}
