// cmd/bankctl/partners.go
package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"bida-banking-workers/pkg/registry"

	"github.com/spf13/cobra"
)

var (
	partnersCapability string
	partnersJSON       bool
)

var partnersCmd = &cobra.Command{
	Use:   "partners",
	Short: "List partner banks",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(false)
		if err != nil {
			return err
		}

		reg := svc.Partners()
		partners := reg.ListPartners()
		if partnersCapability != "" {
			partners = reg.PartnersWithCapability(partnersCapability)
		}

		out := cmd.OutOrStdout()
		if partnersJSON {
			return printJSON(out, partners)
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTIER\tCAPABILITIES")
		for _, p := range partners {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Tier, strings.Join(p.Capabilities, ","))
		}
		return tw.Flush()
	},
}

var partnersValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a partner catalogue file before pointing banking.partners_file at it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := registry.LoadCatalog(args[0])
		if err != nil {
			return fmt.Errorf("catalogue validation failed: %w", err)
		}

		capabilities := map[string]int{}
		for _, p := range cat.Partners {
			for _, c := range p.Capabilities {
				capabilities[c]++
			}
		}
		names := make([]string, 0, len(capabilities))
		for c := range capabilities {
			names = append(names, c)
		}
		sort.Strings(names)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "catalogue %s ok: %d partners\n", args[0], len(cat.Partners))
		for _, c := range names {
			fmt.Fprintf(out, "  %-16s %d\n", c, capabilities[c])
		}
		return nil
	},
}

func init() {
	partnersCmd.AddCommand(partnersValidateCmd)
	partnersCmd.Flags().StringVar(&partnersCapability, "capability", "", "only partners offering this capability, fastest first")
	partnersCmd.Flags().BoolVar(&partnersJSON, "json", false, "print JSON instead of a table")
}
