// Command authctl is an operator tool for the RentSpot auth service: it issues and
// inspects session tokens and hashes passwords for seeding the users store.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/config"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(config.Load).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

type configLoader func() (*config.AppConfig, error)

func newRootCmd(load configLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Operator tooling for the RentSpot auth service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		tokenCmd(load),
		passwordCmd(load),
	)
	return root
}
