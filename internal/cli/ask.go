package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
)

var askCmd = &cobra.Command{
	Use:     "ask [question]",
	Aliases: []string{"debate"},
	Short:   "Ask a question to one provider or debate it across all",
	Long: `Ask sends a question to the configured AI providers. By default all
providers debate the question over several rounds and a judge synthesizes
the final answer. With --provider, only that provider answers, in one shot.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("provider", "p", "all", "Provider to ask (openai, anthropic, or all)")
	askCmd.Flags().Bool("transcript", false, "Print the full debate transcript")
	askCmd.Flags().Bool("save", true, "Save the session to the local database")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	providerName, _ := cmd.Flags().GetString("provider")
	showTranscript, _ := cmd.Flags().GetBool("transcript")
	save, _ := cmd.Flags().GetBool("save")

	logger := newLogger(cfg)

	engine, err := initEngine(cfg, logger)
	if err != nil {
		return err
	}

	var sess *model.Session
	if providerName == "" || providerName == "all" {
		sess, err = engine.Debate(cmd.Context(), question)
	} else {
		sess, err = engine.Ask(cmd.Context(), providerName, question)
	}
	if sess == nil {
		return err
	}

	if save {
		store, storeErr := initStore(cfg)
		if storeErr != nil {
			return storeErr
		}
		defer store.Close()
		if saveErr := store.SaveSession(cmd.Context(), sess); saveErr != nil {
			logger.Error("save session", "session_id", sess.ID, "error", saveErr)
		}
	}

	printSession(sess, showTranscript)
	return err
}

func printSession(sess *model.Session, showTranscript bool) {
	if showTranscript {
		for _, turn := range sess.Transcript {
			fmt.Printf("--- round %d | %s (%s) ---\n", turn.Round, turn.Provider, turn.Model)
			if turn.Failed() {
				fmt.Printf("[failed: %s]\n\n", turn.FailureKind)
				continue
			}
			fmt.Printf("%s\n\n", turn.Text)
		}
	} else if final := finalAnswer(sess); final != nil {
		fmt.Printf("%s\n\n", final.Text)
	}

	fmt.Printf("Session:  %s\n", sess.ID)
	fmt.Printf("Status:   %s\n", sess.Status)
	if sess.FailReason != "" {
		fmt.Printf("Reason:   %s\n", sess.FailReason)
	}
	fmt.Printf("Rounds:   %d\n", sess.Round)
	fmt.Printf("Turns:    %d\n", len(sess.Transcript))
	fmt.Printf("Cost:     $%.6f\n", sess.TotalCostUSD)
}

// finalAnswer picks the turn to show when the transcript is suppressed: the
// judge's synthesis when present, otherwise the last successful turn.
func finalAnswer(sess *model.Session) *model.Turn {
	for i := len(sess.Transcript) - 1; i >= 0; i-- {
		t := sess.Transcript[i]
		if !t.Failed() {
			return &t
		}
	}
	return nil
}
