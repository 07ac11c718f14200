// cmd/bankctl/fx.go
package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var fxCmd = &cobra.Command{
	Use:   "fx FROM TO AMOUNT",
	Short: "Quote a currency conversion",
	Example: `  bankctl fx USD BDT 1000
  bankctl fx bdt eur 250000`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[2])
		if err != nil || !amount.IsPositive() {
			return fmt.Errorf("amount must be a positive number, got %q", args[2])
		}

		svc, err := newService(false)
		if err != nil {
			return err
		}
		quote, err := svc.RequestFXQuote(cmd.Context(), "", strings.ToUpper(args[0]), strings.ToUpper(args[1]), amount)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), quote)
	},
}
