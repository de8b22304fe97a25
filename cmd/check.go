package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Check whether a name is available",
	Long: `Ask the configured registry whether a handle is still free.

Example:
  xrsd check alice
  xrsd check alice.xrs`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	client := newResolverClient()
	name := args[0]

	if !client.IsName(name) {
		return fmt.Errorf("%q is not a valid name", name)
	}

	if client.CheckAvailability(cmd.Context(), name) {
		fmt.Printf("%s is available\n", name)
	} else {
		fmt.Printf("%s is taken\n", name)
	}
	return nil
}
