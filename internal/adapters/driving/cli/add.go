package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/connectors/filesystem"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a note",
	Long: `Add text to the knowledge base. Without arguments the note is read
from stdin until EOF.

Examples:
  promethean add "call the bank about the mortgage"
  pbpaste | promethean add --source clipboard`,
	RunE: runAdd,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a file or every file below a directory",
	Long: `Ingest a file, or walk a directory and ingest every file below it.

Hidden files and directories are skipped. Files already stored, or too
similar to a stored document, are reported as duplicates.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	addCmd.Flags().String("source", "cli", "label recorded as the note's source")
	requires(addCmd, needsUnlocked)
	requires(ingestCmd, needsUnlocked)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	source, err := cmd.Flags().GetString("source")
	if err != nil {
		return fmt.Errorf("getting source flag: %w", err)
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(input(cmd))
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: nothing to add", domain.ErrInvalidInput)
	}

	res, err := ingestionService.IngestText(cmd.Context(), text, source)
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	printIngestResult(cmd, source, res)
	return nil
}

// ingestTotals counts results by status for the closing summary.
type ingestTotals struct {
	created, duplicate, skipped, failed int
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	root := args[0]
	info, err := os.Stat(root)
	if err != nil {
		return err
	}

	paths := []string{root}
	if info.IsDir() {
		paths = filesystem.ListFiles(root)
	}

	var totals ingestTotals
	for _, path := range paths {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		res, err := ingestionService.IngestFile(cmd.Context(), path)
		if err != nil {
			totals.failed++
			cmd.Printf("  error      %s: %v\n", path, err)
			continue
		}
		switch res.Status {
		case domain.IngestCreated:
			totals.created++
		case domain.IngestDuplicate:
			totals.duplicate++
		default:
			totals.skipped++
		}
		printIngestResult(cmd, path, res)
	}

	cmd.Printf("\n%d added, %d duplicates, %d skipped, %d failed\n",
		totals.created, totals.duplicate, totals.skipped, totals.failed)
	if totals.failed > 0 && totals.failed == len(paths) {
		return errors.New("no files could be ingested")
	}
	return nil
}

func printIngestResult(cmd *cobra.Command, name string, res *domain.IngestResult) {
	switch res.Status {
	case domain.IngestCreated:
		cmd.Printf("  added      %s (%s, %d chunks)\n", name, res.DocumentID, res.ChunkCount)
		if res.VectorsPending {
			cmd.Println("             vectors pending; run 'promethean reconcile' once embedding works")
		}
	case domain.IngestDuplicate:
		if res.MatchedDocumentID != "" {
			cmd.Printf("  duplicate  %s of %s (%.2f)\n", name, res.MatchedDocumentID, res.Similarity)
		} else {
			cmd.Printf("  duplicate  %s\n", name)
		}
	default:
		cmd.Printf("  skipped    %s: %s\n", name, res.Reason)
	}
}
