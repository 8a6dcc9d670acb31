package cmd

import (
	"github.com/nsyszr/toybroker/pkg/cmd/server"
	"github.com/spf13/cobra"
)

// serveBrokerCmd represents the serve broker command
var serveBrokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Start the gateway API and the vendor callback endpoint",
	Run:   server.RunServeBroker(c),
}

func init() {
	serveCmd.AddCommand(serveBrokerCmd)
}
