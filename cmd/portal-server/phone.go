package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ehr/portal/internal/platform/phone"
)

// phoneCmd exposes the phone core for support staff fixing stored numbers by
// hand.
func phoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phone",
		Short: "Inspect and convert phone numbers",
	}

	splitCmd := &cobra.Command{
		Use:   "split <international>",
		Short: "Split an international number into country and national part",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			country, _ := cmd.Flags().GetString("country")
			trusted, _ := cmd.Flags().GetBool("trusted")
			hint := phone.Infer()
			switch {
			case country != "" && trusted:
				hint = phone.Trusted(country)
			case country != "":
				hint = phone.Prefer(country)
			}
			v := phone.Split(args[0], hint)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", v.Country, v.National)
			return nil
		},
	}
	splitCmd.Flags().String("country", "", "Stored or preferred country code")
	splitCmd.Flags().Bool("trusted", false, "Treat --country as the stored country")
	cmd.AddCommand(splitCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "combine <country> <national>",
		Short: "Build the stored international string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), phone.Combine(args[0], args[1]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "format <country> <national>",
		Short: "Render a national number with the country mask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), phone.Display(phone.Value{Country: args[0], National: args[1]}))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <country> <national>",
		Short: "Report whether a national number is complete",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := phone.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown country %q", args[0])
			}
			lo, hi := c.Bounds()
			digits := phone.Digits(args[1])
			if !phone.IsComplete(c.Code, digits) {
				return fmt.Errorf("incomplete: %d digits, %s expects %d to %d", len(digits), c.Name, lo, hi)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "complete %s (%s)\n", phone.Combine(c.Code, digits), phone.LineType(phone.Combine(c.Code, digits)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "countries [query]",
		Short: "List supported countries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			for _, c := range phone.Search(query) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-5s %-22s %s\n", c.Code, c.DialCode, c.Name, c.Mask)
			}
			return nil
		},
	})

	return cmd
}
