package cmd

import (
	"strings"

	"github.com/nsyszr/toybroker/pkg/cmd/cli"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:       "send <operation>",
	Short:     "Send a single command to a user's toys",
	Long:      "Encodes and delivers one command using the configured router mode.\nOperations: " + strings.Join(cli.SendOperations, ", "),
	Example:   "  toybroker send vibrate --user alice --intensity 10 --duration 5",
	ValidArgs: cli.SendOperations,
	Run:       cmdHandler.Send.Send,
}

func init() {
	cli.RegisterSendFlags(sendCmd)
	RootCmd.AddCommand(sendCmd)
}
