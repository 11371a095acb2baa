package main

import (
	"os"

	"github.com/inscription-c/insc-testbed/config"
	"github.com/inscription-c/insc-testbed/constants"
	"github.com/inscription-c/insc-testbed/server"
	"github.com/inscription-c/insc-testbed/testbed"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   constants.AppName,
	Short: "regtest inscription testbed, drives a bitcoin node and a custodial signer.",
}

func init() {
	config.RegisterFlags(rootCmd)
	rootCmd.AddCommand(server.Cmd)
	rootCmd.AddCommand(testbed.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
