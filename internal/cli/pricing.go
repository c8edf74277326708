package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "List the loaded per-model pricing",
	Long:  `List every model known to the pricing table with its per-million-token rates.`,
	RunE:  runPricing,
}

func init() {
	rootCmd.AddCommand(pricingCmd)
}

func runPricing(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := initTable(cfg)
	if err != nil {
		return err
	}

	models := table.Models()
	if len(models) == 0 {
		fmt.Println("No pricing loaded. Add YAML files to the pricing directory.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "MODEL\tINPUT $/1M\tOUTPUT $/1M\n")
	for _, m := range models {
		entry, err := table.Lookup(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\n", entry.Model, entry.InputPerMillion, entry.OutputPerMillion)
	}
	return w.Flush()
}
