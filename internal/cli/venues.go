package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/therocksalt/curator/internal/curator"
)

var flagVenuesFormat string

func newVenuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venues",
		Short: "List or seed stored venues",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored venues",
		Args:  cobra.NoArgs,
		RunE:  runVenuesList,
	}
	list.Flags().StringVar(&flagVenuesFormat, "format", "text", "Output format: text or json")

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Insert the known Utah music venues that are not stored yet",
		Args:  cobra.NoArgs,
		RunE:  runVenuesSeed,
	}

	cmd.AddCommand(list, seed)
	return cmd
}

func runVenuesList(cmd *cobra.Command, _ []string) error {
	format, err := ParseFormat(flagVenuesFormat)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	venues, err := a.store.ListVenues(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing venues: %w", err)
	}
	return WriteVenues(cmd.OutOrStdout(), venues, format)
}

func runVenuesSeed(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := curator.Seed(cmd.Context(), a.store, curator.UtahVenues())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded venues: %d created, %d already present\n", result.Created, result.Existing)
	return nil
}
