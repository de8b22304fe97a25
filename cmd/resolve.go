package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrs-network/xrsd/pkg/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name-or-address>",
	Short: "Resolve a name to an address, or an address to its names",
	Long: `Resolve a handle (alice or alice.xrs) to its registered address, or an
address to the names it owns, against the configured registry endpoint.

Example:
  xrsd resolve alice.xrs
  xrsd resolve a1b2c3...  # reverse lookup`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func newResolverClient() *resolver.Client {
	return resolver.New(cfg.Resolver.Endpoint, resolver.WithTTL(cfg.Resolver.CacheTTL))
}

func runResolve(cmd *cobra.Command, args []string) error {
	client := newResolverClient()
	ctx := cmd.Context()
	input := args[0]

	if client.IsName(input) {
		address := client.Resolve(ctx, input)
		if address == "" {
			return fmt.Errorf("%s is not registered", input)
		}
		fmt.Println(address)
		return nil
	}

	names := client.Reverse(ctx, input)
	if len(names) == 0 {
		return fmt.Errorf("no names registered for %s", input)
	}
	for i, name := range names {
		if i == 0 {
			fmt.Printf("%s (primary)\n", name)
			continue
		}
		fmt.Println(name)
	}
	return nil
}
