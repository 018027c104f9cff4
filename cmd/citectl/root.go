package main

import (
	"os"

	"ai-writing-be/internal/config"
	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation/render"
	"ai-writing-be/pkg/citation/resolver"
	"ai-writing-be/pkg/citation/style"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	verbose  bool
	assetDir string
)

var rootCmd = &cobra.Command{
	Use:   "citectl",
	Short: "Resolve and format citations from the command line",
	Long: `citectl runs the citation pipeline locally: resolve a DOI or URL to
CSL-JSON, format it in one of the supported styles, or convert pasted
BibTeX and CSL-JSON. Nothing is persisted and no work session is charged.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline steps to stderr")
	rootCmd.PersistentFlags().StringVar(&assetDir, "assets", "", "CSL style directory (defaults to CSL_ASSET_DIR)")
}

type toolkit struct {
	cfg      *config.Config
	logger   logger.ILogger
	resolver *resolver.Resolver
	styles   *style.Cache
	renderer *render.Renderer
}

func newToolkit() *toolkit {
	cfg := config.Load()
	if assetDir != "" {
		cfg.Citation.AssetDir = assetDir
	}

	log := logger.NewNopLogger()
	if verbose {
		log = logger.NewConsoleLogger()
	}

	var fetcher style.Fetcher = style.NewDirFetcher(cfg.Citation.AssetDir)
	if cfg.Citation.AssetBaseURL != "" {
		fetcher = style.NewHTTPFetcher(cfg.Citation.AssetBaseURL, cfg.Citation.HTTPTimeout)
	}
	styles := style.NewCache(fetcher, log)

	return &toolkit{
		cfg:    cfg,
		logger: log,
		resolver: resolver.New(resolver.Config{
			RegistryURL:       cfg.Citation.RegistryURL,
			DOIURL:            cfg.Citation.DOIURL,
			Mailto:            cfg.Citation.Mailto,
			Timeout:           cfg.Citation.HTTPTimeout,
			RequestsPerSecond: cfg.Citation.RegistryRPS,
		}, log),
		styles:   styles,
		renderer: render.New(styles, log),
	}
}
