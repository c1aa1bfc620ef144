package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/genc-murat/crystalplaces/internal/coordinator"
	"github.com/genc-murat/crystalplaces/internal/core/models"
	"github.com/genc-murat/crystalplaces/internal/geo"
)

func newSuggestCmd(root *rootOptions) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Read partial addresses from stdin and print suggestions as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			c := a.NewCoordinator(coordinator.WithListener(func(s models.SuggestionState) {
				printState(out, s)
			}))
			defer c.Close()

			if err := feedLines(cmd.InOrStdin(), c); err != nil {
				return err
			}
			awaitSettled(c, wait)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "How long to wait for the last response after input ends")
	return cmd
}

// feedLines sends every line to the coordinator; an empty line clears
func feedLines(r io.Reader, c *coordinator.Coordinator) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			c.ClearSuggestions()
			continue
		}
		c.SetValue(line)
	}
	return scanner.Err()
}

func awaitSettled(c *coordinator.Coordinator, wait time.Duration) {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		s := c.Suggestions()
		if !s.Loading && s.Status != "" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func printState(w io.Writer, s models.SuggestionState) {
	switch {
	case s.Loading:
		fmt.Fprintln(w, "... loading")
	case s.Status == "":
		fmt.Fprintln(w, "(cleared)")
	case s.Status != models.StatusOK:
		fmt.Fprintf(w, "[%s]\n", s.Status)
	default:
		fmt.Fprintf(w, "[%s] %d suggestion(s)\n", s.Status, len(s.Data))
		for _, suggestion := range s.Data {
			fmt.Fprintf(w, "  %s  (%s)\n", suggestion.Description(), suggestion.PlaceID())
		}
	}
}

func newGeocodeCmd(root *rootOptions) *cobra.Command {
	var (
		req      models.GeocodeRequest
		shortZip bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "geocode <address>",
		Short: "Geocode an address and print coordinates and postal code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			req.Address = strings.Join(args, " ")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			results, err := a.Geocode(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				ll := geo.GetLatLng(r)
				fmt.Fprintf(out, "%s\n  place_id: %s\n  location: %g,%g\n", r.FormattedAddress, r.PlaceID, ll.Lat, ll.Lng)
				if zip, ok := geo.GetZipCode(r, shortZip); ok {
					fmt.Fprintf(out, "  zip: %s\n", zip)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ComponentRestrictions.Country, "country", "", "Restrict results to a country")
	cmd.Flags().StringVar(&req.Region, "region", "", "Region bias")
	cmd.Flags().StringVar(&req.Language, "language", "", "Result language")
	cmd.Flags().BoolVar(&shortZip, "short-zip", false, "Print the short form of the postal code")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
	return cmd
}

func newDetailsCmd(root *rootOptions) *cobra.Command {
	var (
		req     models.DetailsRequest
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "details <place-id>",
		Short: "Print the details of a place as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			req.PlaceID = args[0]
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			details, err := a.Details(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(details)
		},
	}

	cmd.Flags().StringSliceVar(&req.Fields, "fields", nil, "Fields to request (comma separated)")
	cmd.Flags().StringVar(&req.Language, "language", "", "Result language")
	cmd.Flags().StringVar(&req.Region, "region", "", "Region bias")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
	return cmd
}
