package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/app"
	"github.com/custodia-labs/promethean-light/internal/workspace"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose the passphrase of the selected database",
	Long: `Set the passphrase that encrypts the selected database.

The passphrase is never stored. A random salt and an encrypted check value
are written to the database directory; losing the passphrase makes the
contents unrecoverable.

Set PROMETHEAN_PASSPHRASE to run without prompting.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

var initCmd = &cobra.Command{
	Use:   "init <db-name>",
	Short: "Create a new named database",
	Long: `Create a new database under the data directory and set its passphrase.

Select it later with --db or PROMETHEAN_DB.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

var listDBsCmd = &cobra.Command{
	Use:   "list-dbs",
	Short: "List databases",
	Args:  cobra.NoArgs,
	RunE:  runListDBs,
}

func init() {
	requires(setupCmd, needsConfig)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listDBsCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	if config == nil {
		return errors.New("configuration not loaded")
	}
	return setupPassphrase(cmd, config)
}

func runInit(cmd *cobra.Command, args []string) error {
	ws, err := workspace.Resolve(homeDir)
	if err != nil {
		return err
	}
	db, err := ws.Create(args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Created database %s at %s\n", db.Name, db.Dir)

	c, err := app.LoadConfig(app.Options{Home: homeDir, Database: db.Name, Iterations: kdfIterations})
	if err != nil {
		return err
	}
	return setupPassphrase(cmd, c)
}

// setupPassphrase asks for a new passphrase twice and sets it on c.
func setupPassphrase(cmd *cobra.Command, c *app.Config) error {
	passphrase := os.Getenv(app.EnvPassphrase)
	if passphrase == "" {
		first, err := readPassphrase(cmd, fmt.Sprintf("New passphrase for %s: ", c.Database.Name))
		if err != nil {
			return err
		}
		second, err := readPassphrase(cmd, "Repeat passphrase: ")
		if err != nil {
			return err
		}
		if first != second {
			return errors.New("passphrases do not match")
		}
		passphrase = first
	}
	if passphrase == "" {
		return errors.New("passphrase must not be empty")
	}

	if err := c.Setup(passphrase); err != nil {
		return fmt.Errorf("setup %s: %w", c.Database.Name, err)
	}
	cmd.Printf("Database %s is ready. Keep the passphrase safe; it cannot be recovered.\n", c.Database.Name)
	return nil
}

func runListDBs(cmd *cobra.Command, _ []string) error {
	ws, err := workspace.Resolve(homeDir)
	if err != nil {
		return err
	}
	names, err := ws.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		cmd.Println("No databases. Run 'promethean setup' to create the default one.")
		return nil
	}

	selected := workspace.DatabaseName(dbName)
	for _, name := range names {
		marker := " "
		if name == selected {
			marker = "*"
		}
		state := "ready"
		if db, err := ws.Database(name); err == nil && !db.IsSetUp() {
			state = "needs setup"
		}
		cmd.Printf("%s %s (%s)\n", marker, name, state)
	}
	return nil
}
