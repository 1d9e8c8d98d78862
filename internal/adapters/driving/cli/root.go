// Package cli provides the promethean command-line interface.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/app"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
	"github.com/custodia-labs/promethean-light/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// Command annotations naming what a command needs before it runs.
const (
	needsKey      = "promethean/needs"
	needsConfig   = "config"
	needsUnlocked = "unlocked"
)

var (
	homeDir string
	dbName  string
	verbose bool

	// kdfIterations overrides the key derivation work factor. Tests only.
	kdfIterations int
)

// Services bound by the pre-run hook, or injected by tests.
var (
	settingsService  driving.SettingsService
	searchService    driving.SearchService
	ingestionService driving.IngestionService
	chatService      driving.ChatService
	emailService     driving.EmailAccountService
	organizerService driving.Organizer
)

var (
	// config is the loaded workspace of the current invocation.
	config *app.Config

	// opened is the unlocked database, closed after the command.
	opened *app.App

	// stdin is shared by passphrase prompts and commands reading input.
	stdin *bufio.Reader
)

var rootCmd = &cobra.Command{
	Use:   "promethean",
	Short: "Encrypted local knowledge base",
	Long: `Promethean Light ingests files, mail and notes into an encrypted local
store, embeds them for semantic search, tags and clusters them, and answers
questions over them.

Run 'promethean setup' once to choose a passphrase, then 'promethean daemon'
to watch folders and mailboxes in the background.`,
	SilenceUsage:       true,
	PersistentPreRunE:  prepare,
	PersistentPostRunE: release,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "data directory (default $PROMETHEAN_HOME or ~/.promethean)")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", "", "database name (default $PROMETHEAN_DB or \"default\")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
}

// Execute runs the root command. The database is closed even when the
// command fails, since cobra skips post-run hooks on error.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := release(nil, nil); err == nil {
		err = cerr
	}
	return err
}

// requires marks cmd as needing the loaded config or an unlocked database.
func requires(cmd *cobra.Command, need string) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[needsKey] = need
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	stdin = bufio.NewReader(cmd.InOrStdin())

	switch cmd.Annotations[needsKey] {
	case needsConfig:
		if settingsService != nil {
			return nil
		}
		return loadConfig()
	case needsUnlocked:
		if searchService != nil {
			return nil
		}
		return unlock(cmd)
	}
	return nil
}

func loadConfig() error {
	if config != nil {
		return nil
	}
	c, err := app.LoadConfig(app.Options{Home: homeDir, Database: dbName, Iterations: kdfIterations})
	if err != nil {
		return describe(err)
	}
	config = c
	settingsService = c.Settings
	return nil
}

// unlock opens the selected database and binds its services.
func unlock(cmd *cobra.Command) error {
	if err := loadConfig(); err != nil {
		return err
	}

	passphrase := ""
	if os.Getenv(app.EnvPassphrase) == "" {
		var err error
		if passphrase, err = readPassphrase(cmd, fmt.Sprintf("Passphrase for %s: ", config.Database.Name)); err != nil {
			return err
		}
	}

	a, err := config.Open(cmd.Context(), passphrase)
	if err != nil {
		return describe(err)
	}
	opened = a
	searchService = a.Search
	ingestionService = a.Ingestion
	chatService = a.Chat
	emailService = a.Email
	organizerService = a.Organizer
	return nil
}

// release closes what prepare opened. Injected services are kept.
func release(_ *cobra.Command, _ []string) error {
	var err error
	if opened != nil {
		err = opened.Close()
		opened = nil
		searchService = nil
		ingestionService = nil
		chatService = nil
		emailService = nil
		organizerService = nil
	}
	if config != nil {
		config = nil
		settingsService = nil
	}
	return err
}

// describe turns domain errors into actionable messages.
func describe(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotSetUp):
		return fmt.Errorf("%w: run 'promethean setup' first", err)
	case errors.Is(err, domain.ErrWrongPassphrase):
		return errors.New("wrong passphrase")
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%w: create it with 'promethean init'", err)
	case errors.Is(err, domain.ErrStoreLocked):
		addr := domain.DefaultAppSettings().API.Addr
		if config != nil {
			if s, serr := config.Settings.Get(); serr == nil {
				addr = s.API.Addr
			}
		}
		return fmt.Errorf("%w: the daemon is running; stop it or use the HTTP API at http://%s", err, addr)
	}
	return err
}
