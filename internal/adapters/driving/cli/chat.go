package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your notes",
	Long: `Ask questions answered from the knowledge base by the configured LLM.

Without --message an interactive terminal UI opens. Conversations are
stored; pass --session to continue one.

Controls:
  Enter    - Send
  Ctrl+N   - New session
  PgUp/Dn  - Scroll
  Esc      - Menu
  q        - Quit (from the menu)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("session", "", "continue an existing session")
	chatCmd.Flags().StringP("message", "m", "", "ask one question and print the answer")
	requires(chatCmd, needsUnlocked)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	session, _ := cmd.Flags().GetString("session") //nolint:errcheck // flag registered in init
	message, _ := cmd.Flags().GetString("message") //nolint:errcheck // flag registered in init

	if message != "" {
		return askOnce(cmd, session, message)
	}

	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{Chat: chatService, Search: searchService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	if err := app.WithContext(cmd.Context()).WithChat(session).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if id := app.Session(); id != "" {
		cmd.Printf("Session %s saved. Resume with 'promethean chat --session %s'.\n", id, id)
	}
	return nil
}

func askOnce(cmd *cobra.Command, session, message string) error {
	reply, err := chatService.Ask(cmd.Context(), session, message)
	if errors.Is(err, domain.ErrLLMUnavailable) {
		return errors.New("no LLM configured; run 'promethean settings llm'")
	}
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	cmd.Println(reply.Answer)
	if len(reply.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, s := range reply.Sources {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, s.Document.Source, s.Score)
		}
	}
	cmd.Printf("\nsession: %s\n", reply.SessionID)
	return nil
}
