package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask <query...>",
	Short: "Search the knowledge base",
	Long: `Run a semantic search and print the best matching chunks.

Examples:
  promethean ask how much did the roof repair cost
  promethean ask --tag finance -n 3 quarterly revenue
  promethean ask --json deployment checklist`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recent documents",
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags by document count",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var summaryCmd = &cobra.Command{
	Use:   "summary <cluster-or-tag>",
	Short: "Summarise a cluster or tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	askCmd.Flags().IntP("limit", "n", domain.DefaultSearchLimit, "maximum results")
	askCmd.Flags().String("tag", "", "only documents carrying this tag")
	askCmd.Flags().String("type", "", "only documents of this source type (file, email, text)")
	askCmd.Flags().Bool("json", false, "print results as JSON")
	lsCmd.Flags().IntP("limit", "n", 20, "number of documents")
	tagsCmd.Flags().IntP("limit", "n", 0, "number of tags (0 = all)")

	for _, c := range []*cobra.Command{askCmd, lsCmd, statsCmd, tagsCmd, summaryCmd} {
		requires(c, needsUnlocked)
		rootCmd.AddCommand(c)
	}
}

// searchHit is the JSON shape of one ask result.
type searchHit struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	SourceType string  `json:"source_type"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview"`
	Content    string  `json:"content"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	limit, _ := cmd.Flags().GetInt("limit")  //nolint:errcheck // flag registered in init
	tag, _ := cmd.Flags().GetString("tag")   //nolint:errcheck // flag registered in init
	kind, _ := cmd.Flags().GetString("type") //nolint:errcheck // flag registered in init
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag registered in init

	opts := domain.SearchOptions{Limit: limit, Tag: tag, SourceType: domain.SourceType(kind)}
	if kind != "" && !opts.SourceType.IsValid() {
		return fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, kind)
	}

	query := strings.Join(args, " ")
	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if asJSON {
		hits := make([]searchHit, 0, len(results))
		for _, r := range results {
			hits = append(hits, searchHit{
				DocumentID: r.Document.ID,
				Source:     r.Document.Source,
				SourceType: string(r.Document.SourceType),
				Score:      r.Score,
				Preview:    r.Preview,
				Content:    r.Chunk.Content,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Found %d results for %q:\n\n", len(results), query)
	for i, r := range results {
		cmd.Printf("%d. %s [%s] (score: %.2f)\n", i+1, r.Document.Source, r.Document.SourceType, r.Score)
		preview := r.Preview
		if preview == "" {
			preview = domain.Preview(r.Chunk.Content)
		}
		cmd.Printf("   %s\n\n", strings.Join(strings.Fields(preview), " "))
	}
	return nil
}

func runLs(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // flag registered in init

	docs, err := searchService.Recent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents yet. Add one with 'promethean add'.")
		return nil
	}
	for _, d := range docs {
		cmd.Printf("%s  %s  %-5s  %s\n", d.ID, d.CreatedAt.Format("2006-01-02 15:04"), d.SourceType, d.Source)
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	stats, err := searchService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	cmd.Printf("Documents:  %d\n", stats.Documents)
	cmd.Printf("Chunks:     %d\n", stats.Chunks)
	cmd.Printf("Vectors:    %d\n", stats.Vectors)
	cmd.Printf("Tags:       %d\n", stats.Tags)
	cmd.Printf("Clusters:   %d\n", stats.Clusters)
	cmd.Printf("Model:      %s (%d dimensions)\n", stats.Model, stats.Dimensions)
	return nil
}

func runTags(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // flag registered in init

	tags, err := searchService.Tags(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	if len(tags) == 0 {
		cmd.Println("No tags yet.")
		return nil
	}
	for _, t := range tags {
		cmd.Printf("%5d  %s\n", t.Count, t.Keyword)
	}
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	summary, err := searchService.Summary(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no cluster or tag named %q", args[0])
	}
	if err != nil {
		return fmt.Errorf("summarise %s: %w", args[0], err)
	}

	cmd.Printf("%s (%s, %d documents)\n\n", summary.Name, summary.Kind, summary.DocumentCount)
	cmd.Println(summary.Text)
	if len(summary.TopKeywords) > 0 {
		words := make([]string, 0, len(summary.TopKeywords))
		for _, k := range summary.TopKeywords {
			words = append(words, k.Keyword)
		}
		cmd.Printf("\nKeywords: %s\n", strings.Join(words, ", "))
	}
	if len(summary.Recent) > 0 {
		cmd.Println("\nRecent:")
		for _, d := range summary.Recent {
			cmd.Printf("  %s  %s\n", d.CreatedAt.Format("2006-01-02"), d.Source)
		}
	}
	return nil
}
