// cmd/bankctl/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	partnersFile string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "bankctl",
	Short: "Inspect and exercise the simulated partner bank",
	Long: `bankctl runs the partner bank simulation in process, against an
in-memory store. It is meant for demos and local debugging; the workers
and HTTP API run in worker-manager.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&partnersFile, "partners", "", "partner catalogue JSON file (defaults to the built-in list)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log bank operations to stderr")

	rootCmd.AddCommand(demoCmd, partnersCmd, fxCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
