package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/logger"
)

const daemonLogFile = "daemon.log"

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background daemon",
	Long: `Run the HTTP API, folder watchers, mail pollers and the scheduled
organizer until interrupted.

The daemon holds the database open; other commands against the same
database fail while it runs. Use the HTTP API instead.

Logs go to stderr and to logs/daemon.log in the database directory.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair missing or orphaned vectors",
	Long: `Embed chunks that have no vector and delete vectors whose chunk no longer
exists. Run this after ingesting while the embedding provider was down.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Recluster the corpus now",
	Long: `Run one clustering cycle immediately. Without flags the configured
organizer.min_cluster_size and organizer.min_samples are used.`,
	Args: cobra.NoArgs,
	RunE: runOrganize,
}

var (
	organizeMinClusterSize int
	organizeMinSamples     int
)

func init() {
	organizeCmd.Flags().IntVar(&organizeMinClusterSize, "min-cluster-size", 0, "smallest group to report (default from settings)")
	organizeCmd.Flags().IntVar(&organizeMinSamples, "min-samples", 0, "core-distance neighbourhood size (default from settings)")

	for _, c := range []*cobra.Command{daemonCmd, reconcileCmd, organizeCmd} {
		requires(c, needsUnlocked)
		rootCmd.AddCommand(c)
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if opened == nil {
		return errors.New("database not unlocked")
	}

	logPath := filepath.Join(opened.Config.Database.LogsDir(), daemonLogFile)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer f.Close()

	out := io.MultiWriter(cmd.ErrOrStderr(), f)
	prevLog, prevLogger := log.Writer(), logger.Output()
	log.SetOutput(out)
	logger.SetOutput(out)
	defer func() {
		log.SetOutput(prevLog)
		logger.SetOutput(prevLogger)
	}()

	d, err := opened.Daemon()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("daemon: database %s, components: %s",
		opened.Config.Database.Name, strings.Join(d.Components(), ", "))
	if opened.Settings.API.Enabled {
		log.Printf("daemon: api on http://%s", opened.Settings.API.Addr)
	}
	if opened.Settings.MCP.Enabled {
		log.Printf("daemon: mcp on http://%s", opened.Settings.MCP.Addr)
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	report, err := ingestionService.Reconcile(cmd.Context())
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	cmd.Printf("Checked %d chunks: %d vectors added, %d orphans removed\n",
		report.ChunksChecked, report.VectorsAdded, report.OrphansRemoved)
	return nil
}

func runOrganize(cmd *cobra.Command, _ []string) error {
	if organizerService == nil {
		return errors.New("organizer not configured")
	}
	var params domain.ClusteringParams
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			params = settings.Organizer.Clustering
		}
	}
	if cmd.Flags().Changed("min-cluster-size") {
		params.MinClusterSize = organizeMinClusterSize
	}
	if cmd.Flags().Changed("min-samples") {
		params.MinSamples = organizeMinSamples
	}

	out, err := organizerService.RunClustering(cmd.Context(), domain.CorpusSnapshot{}, params)
	if err != nil {
		return fmt.Errorf("organize: %w", err)
	}
	if !out.Ran {
		cmd.Printf("Clustering skipped: %s\n", out.SkipReason)
		return nil
	}

	cmd.Printf("%d clusters, %d documents assigned, %d unclustered\n",
		len(out.Clusters), out.Assigned, out.Noise)
	for _, c := range out.Clusters {
		cmd.Printf("  %-30s %d documents\n", c.Label, c.DocumentCount)
	}
	return nil
}
