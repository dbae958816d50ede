package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skoobtools/estante/internal/auth"
	"github.com/skoobtools/estante/internal/bookinfo"
	"github.com/skoobtools/estante/internal/catalog"
	"github.com/skoobtools/estante/internal/config"
	"github.com/skoobtools/estante/internal/export"
	"github.com/skoobtools/estante/internal/harvest"
	"github.com/skoobtools/estante/internal/logger"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Harvest the bookshelf and export it",
	Long: `Walk every page of the bookshelf API, optionally scrape each book's
page for fields the API omits (ISBN, average rating, binding), and
write the result as CSV, JSON or YAML.

Without --token a browser window opens for login first.

Examples:
  # Interactive login, then export everything to CSV
  estante export

  # Reuse a token from a previous 'estante login'
  estante export --token "eyJ..." --user-id 123456

  # API data only, no book page scraping
  estante export --details=false -f yaml -o shelf.yaml`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()

	// Session
	flags.StringP("token", "t", "", "session token (skips interactive login)")
	flags.StringP("user-id", "u", "", "account identifier, numeric or 24-char hex")

	// Harvest settings
	flags.String("filter", "read", "shelf filter")
	flags.Int("page-size", 30, "items per API page")
	flags.Int("max-pages", 100, "page ceiling")

	// Enrichment settings
	flags.Bool("details", true, "scrape book pages for missing fields (use --details=false to disable)")
	flags.IntP("workers", "w", 15, "concurrent detail fetches")

	// Output settings
	flags.StringP("format", "f", "csv", "output format: csv, json, yaml")
	flags.StringP("output", "o", "", "output file (default: skoob_estante_<timestamp>.<format>)")

	// Bind to viper
	_ = viper.BindPFlag("token", flags.Lookup("token"))
	_ = viper.BindPFlag("user_id", flags.Lookup("user-id"))
	_ = viper.BindPFlag("harvest.filter", flags.Lookup("filter"))
	_ = viper.BindPFlag("harvest.page_size", flags.Lookup("page-size"))
	_ = viper.BindPFlag("harvest.max_pages", flags.Lookup("max-pages"))
	_ = viper.BindPFlag("details.enabled", flags.Lookup("details"))
	_ = viper.BindPFlag("details.workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("export.format", flags.Lookup("format"))
	_ = viper.BindPFlag("export.output", flags.Lookup("output"))
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	credential := auth.Credential(cfg.Token)
	accountID := auth.AccountID(cfg.UserID)
	switch {
	case credential == "":
		res, err := acquireSession(ctx, cfg)
		if err != nil {
			return err
		}
		credential = res.Credential
		if accountID == "" {
			accountID = res.AccountID
		}
	case !credential.Valid():
		return fmt.Errorf("the provided token does not look like a Skoob session token")
	}

	engine := harvest.New(harvest.Options{
		Filter:   cfg.Harvest.Filter,
		PageSize: cfg.Harvest.PageSize,
		MaxPages: cfg.Harvest.MaxPages,
		Delay:    cfg.Harvest.Delay,
	})
	result, err := engine.Harvest(ctx, credential, accountID)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}
	logger.Info("shelf harvested", "items", len(result.Items), "total_items", result.TotalItems)

	books := make([]catalog.Book, 0, len(result.Items))
	for _, it := range result.Items {
		books = append(books, catalog.FromItem(it))
	}

	if cfg.Details.Enabled && len(books) > 0 {
		enrich(ctx, cfg, books)
	}

	outPath := cfg.Export.Output
	if outPath == "" {
		outPath = export.DefaultFilename(format)
	}

	f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	writer, err := export.NewWriter(format, f)
	if err != nil {
		return err
	}
	if err := writer.WriteAll(books); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("flushing export: %w", err)
	}

	fmt.Printf("Exported %d books to %s\n", len(books), outPath)
	if result.Truncated {
		fmt.Printf("Warning: the harvest stopped early on page %d (%v); the shelf reports %d items in total.\n",
			result.FailedPage, result.PageErr, result.TotalItems)
	}
	return nil
}

// enrich scrapes each book's page and folds the found details into the
// records. Books without a page URL are skipped.
func enrich(ctx context.Context, cfg config.Config, books []catalog.Book) {
	urls := make([]string, 0, len(books))
	for _, b := range books {
		if b.BookURL != "" {
			urls = append(urls, b.BookURL)
		}
	}
	if len(urls) == 0 {
		logger.Info("no book page URLs to enrich from")
		return
	}

	scraper := bookinfo.NewScraper(bookinfo.Options{Workers: cfg.Details.Workers})
	details := scraper.FetchBatch(ctx, urls)

	for i := range books {
		if d, ok := details[books[i].BookURL]; ok {
			books[i].MergeDetails(d)
		}
	}
}
