package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

var emailAddCmd = &cobra.Command{
	Use:   "email-add <address>",
	Short: "Add an IMAP account to poll",
	Long: `Store an IMAP account. The password is encrypted with the database key.

The running daemon picks up new accounts on its next poll. On first contact
the most recent messages are backfilled; afterwards only new ones are read.

Example:
  promethean email-add me@example.com --server imap.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runEmailAdd,
}

var emailListCmd = &cobra.Command{
	Use:   "email-list",
	Short: "List stored IMAP accounts",
	Args:  cobra.NoArgs,
	RunE:  runEmailList,
}

var emailRemoveCmd = &cobra.Command{
	Use:   "email-remove <id>",
	Short: "Remove a stored IMAP account",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmailRemove,
}

func init() {
	emailAddCmd.Flags().String("server", "", "IMAP server host (required)")
	emailAddCmd.Flags().Int("port", 993, "IMAP server port")
	emailAddCmd.Flags().String("username", "", "login name (default: the address)")
	emailAddCmd.Flags().String("mailbox", domain.DefaultMailbox, "mailbox to poll")
	emailAddCmd.Flags().Bool("no-tls", false, "connect without TLS")
	_ = emailAddCmd.MarkFlagRequired("server")

	for _, c := range []*cobra.Command{emailAddCmd, emailListCmd, emailRemoveCmd} {
		requires(c, needsUnlocked)
		rootCmd.AddCommand(c)
	}
}

func runEmailAdd(cmd *cobra.Command, args []string) error {
	if emailService == nil {
		return errors.New("email service not configured")
	}
	flags := cmd.Flags()
	server, _ := flags.GetString("server")     //nolint:errcheck // flag registered in init
	port, _ := flags.GetInt("port")            //nolint:errcheck // flag registered in init
	username, _ := flags.GetString("username") //nolint:errcheck // flag registered in init
	mailbox, _ := flags.GetString("mailbox")   //nolint:errcheck // flag registered in init
	noTLS, _ := flags.GetBool("no-tls")        //nolint:errcheck // flag registered in init

	password, err := readPassphrase(cmd, fmt.Sprintf("Password for %s: ", args[0]))
	if err != nil {
		return err
	}

	cred, err := emailService.Add(cmd.Context(), domain.EmailAccountInput{
		Address:  args[0],
		Server:   server,
		Port:     port,
		Username: username,
		Password: password,
		Mailbox:  mailbox,
		UseTLS:   !noTLS,
	})
	if errors.Is(err, domain.ErrInvalidInput) {
		return errors.New("address, server and password are required")
	}
	if err != nil {
		return fmt.Errorf("add account: %w", err)
	}

	cmd.Printf("Added %s (%s@%s:%d/%s) as %s\n",
		cred.Address, cred.Username, cred.Server, cred.Port, cred.Mailbox, cred.ID)
	return nil
}

func runEmailList(cmd *cobra.Command, _ []string) error {
	if emailService == nil {
		return errors.New("email service not configured")
	}
	creds, err := emailService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(creds) == 0 {
		cmd.Println("No accounts. Add one with 'promethean email-add'.")
		return nil
	}
	for _, c := range creds {
		security := "tls"
		if !c.UseTLS {
			security = "plain"
		}
		cmd.Printf("%s  %s  %s:%d %s [%s] last uid %d\n",
			c.ID, c.Address, c.Server, c.Port, c.Mailbox, security, c.LastUID)
	}
	return nil
}

func runEmailRemove(cmd *cobra.Command, args []string) error {
	if emailService == nil {
		return errors.New("email service not configured")
	}
	id := strings.TrimSpace(args[0])
	if err := emailService.Remove(cmd.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no account %s", id)
		}
		return fmt.Errorf("remove account: %w", err)
	}
	cmd.Printf("Removed account %s\n", id)
	return nil
}
