package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"property-agent/config"
	"property-agent/models"
	"property-agent/scraper"
)

func newSitesCmd(a *app) *cobra.Command {
	var city, area string

	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the configured source websites",
		Long: `Lists the source websites from SITES_FILE, or the built-in list. With --city
the search URL of every site is shown for that location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := config.LoadSites(a.cfg.SitesFile)
			if err != nil {
				return err
			}

			location := config.LocationPlaceholder
			if city != "" {
				location = scraper.NormalizeLocation(city, area)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDEFAULT\tURL")
			for _, s := range sites {
				def := ""
				if s.Default {
					def = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, def, s.URL(location))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "render the URLs for this city")
	cmd.Flags().StringVar(&area, "area", "", "render the URLs for this area")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "normalize CITY [AREA]",
		Short:   "Print the location slug used in site URLs",
		Example: "  property-agent normalize ঢাকা Gulshan   # dhaka/gulshan",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			area := ""
			if len(args) == 2 {
				area = args[1]
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), scraper.NormalizeLocation(args[0], area))
			return err
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs archived with --archive, or the listings of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return fmt.Errorf("history needs DATABASE_URL")
			}

			pw, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer pw.Close()

			if runID != "" {
				listings, err := pw.FetchListings(cmd.Context(), runID)
				if err != nil {
					return err
				}
				return writeListings(cmd.OutOrStdout(), runID, listings)
			}

			runs, err := pw.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tWHEN\tLOCATION\tBUDGET\tPROPERTIES\tWARNINGS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
					r.RunID, humanize.Time(r.StartedAt), scraper.NormalizeLocation(r.City, r.Area),
					r.BudgetRange, r.TotalProperties, r.Warnings)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "show the listings archived for this run ID")
	return cmd
}

func writeListings(w io.Writer, runID string, listings []models.Listing) error {
	if len(listings) == 0 {
		_, err := fmt.Fprintf(w, "No listings archived for run %s.\n", runID)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tADDRESS\tPRICE\tTYPE\tURL")
	for i, l := range listings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, l.Address, orNA(l.Price), orNA(l.PropertyType), orNA(l.ListingURL))
	}
	return tw.Flush()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
