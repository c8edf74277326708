package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured AI providers",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tMODEL\tKEY ENV\tKEY SET\n")
	for _, pc := range cfg.Providers {
		keySet := "no"
		if os.Getenv(pc.APIKeyEnv) != "" {
			keySet = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pc.Name, pc.Model, pc.APIKeyEnv, keySet)
	}
	return w.Flush()
}
