package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored debate sessions",
	RunE:  runSessions,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print a stored session with its full transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)

	sessionsCmd.Flags().IntP("limit", "n", 20, "Maximum number of sessions to list")
}

func runSessions(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.ListSessions(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No stored sessions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tCREATED\tSTATUS\tROUNDS\tTURNS\tCOST\tQUESTION\n")
	for _, s := range summaries {
		question := s.Question
		if len(question) > 48 {
			question = question[:45] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t$%.6f\t%s\n",
			s.ID,
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.Status, s.Rounds, s.TurnCount, s.TotalCostUSD, question,
		)
	}
	return w.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.GetSession(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sess)
}
