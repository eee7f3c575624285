// Command shiftbot runs the shift tracker: the Telegram bot, the HTTP API and
// a few operator commands.
//
//	@title						Shift Tracker API
//	@version					1.0
//	@description				Work shift tracking: start and end shifts, history, reports.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shiftbot",
	Short: "Work shift tracker",
	Long: `shiftbot tracks employee work shifts.

Run "shiftbot serve" to start the Telegram bot and the HTTP API. The export
and stats commands read the same store for operators without the bot.
Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, exportCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
