package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/parley/internal/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Starts an interactive conversation with the offline classifier, the
pattern extractor and the mock bank. Replies are rendered as Markdown when
stdout is a terminal. Type 'exit' to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// One conversation per process, so the classifier may carry the last intent over.
		stack, _, logger, err := setup(ctx, cmd, true)
		if err != nil {
			return err
		}
		defer stack.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		debug, _ := cmd.Flags().GetBool("debug")
		plain, _ := cmd.Flags().GetBool("plain")

		interactive := !plain && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		logger.Debug("Starting chat", "session_id", sessionID, "interactive", interactive)

		return cli.RunChat(ctx, stack.Engine, cli.ChatOptions{
			SessionID:   sessionID,
			In:          os.Stdin,
			Out:         os.Stdout,
			Interactive: interactive,
			Debug:       debug,
			Logger:      logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session ID to continue (default: a new UUID)")
	chatCmd.Flags().Bool("plain", false, "Disable the banner and Markdown rendering")

	// Chat is the default command.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
