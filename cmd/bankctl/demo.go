// cmd/bankctl/demo.go
package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/escrow"
	"bida-banking-workers/internal/common/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	demoInvestor    string
	demoName        string
	demoApplication string
	demoAmount      string
	demoLatency     bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the investor onboarding scenario end to end",
	Long: `Runs init, KYC, account opening, escrow creation, application approval
(escrow auto-release) and document generation for one investor, printing
each step's result as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(demoAmount)
		if err != nil {
			return fmt.Errorf("invalid --amount %q: %w", demoAmount, err)
		}
		svc, err := newService(demoLatency)
		if err != nil {
			return err
		}
		var approvalDelay time.Duration
		if demoLatency {
			approvalDelay = time.Second
		}
		return runDemo(cmd.Context(), cmd.OutOrStdout(), svc, demoInvestor, demoName, demoApplication, amount, approvalDelay)
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoInvestor, "investor", "inv-1", "investor ID")
	demoCmd.Flags().StringVar(&demoName, "name", "Acme Ltd", "investor display name")
	demoCmd.Flags().StringVar(&demoApplication, "application", "APP-100", "BIDA application ID")
	demoCmd.Flags().StringVar(&demoAmount, "amount", "500000", "escrow amount in USD")
	demoCmd.Flags().BoolVar(&demoLatency, "latency", false, "simulate bank processing delays")
}

type demoStep struct {
	Step   string      `json:"step"`
	Result interface{} `json:"result"`
}

func runDemo(ctx context.Context, w io.Writer, svc *bank.Service, investorID, name, applicationID string, amount decimal.Decimal, approvalDelay time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	emit := func(step string, result interface{}) error {
		return printJSON(w, demoStep{Step: step, Result: result})
	}

	state, _, err := svc.InitBankState(ctx, investorID, name, applicationID)
	if err != nil {
		return err
	}
	if err := emit("init", state); err != nil {
		return err
	}

	kyc, err := svc.PerformKYC(ctx, investorID)
	if err != nil {
		return err
	}
	if err := emit("kyc", kyc); err != nil {
		return err
	}

	acct, err := svc.OpenCorporateAccount(ctx, investorID, name)
	if err != nil {
		return err
	}
	if err := emit("account", acct); err != nil {
		return err
	}

	esc, err := svc.CreateEscrow(ctx, investorID, applicationID, amount, "Conditional approval escrow")
	if err != nil {
		return err
	}
	if err := emit("escrow", esc); err != nil {
		return err
	}

	hook := escrow.NewHook(svc, approvalDelay, logger.NewNoOpLogger())
	approval := <-hook.SimulateApproval(ctx, investorID, applicationID)
	if approval.Err != nil {
		return approval.Err
	}
	if err := emit("application-approved", approval.Escrow); err != nil {
		return err
	}

	docs, err := svc.GenerateBankDocuments(ctx, investorID)
	if err != nil {
		return err
	}
	if err := emit("documents", docs); err != nil {
		return err
	}

	score, _, err := svc.ReadinessScore(ctx, investorID)
	if err != nil {
		return err
	}
	return emit("readiness", map[string]int{"readinessScore": score})
}
