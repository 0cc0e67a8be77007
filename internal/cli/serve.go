package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harun/quill/internal/config"
	"github.com/harun/quill/internal/daemon"
	"github.com/harun/quill/internal/logger"
	"github.com/spf13/cobra"
)

const banner = `
   ____        _ _ _
  / __ \__  __(_) | |
 / / / / / / / / / /
/ /_/ / /_/ / / / /
\___\_\__,_/_/_/_/
`

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server in the foreground. It serves JSON-RPC on /mcp and
/ws until interrupted, then drains in-flight calls and exits.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// loadConfig resolves configuration and applies the global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Resolve()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		Secrets:   cfg.Secrets(),
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	d, err := daemon.New(cmd.Context(), cfg, log, version)
	if err != nil {
		return err
	}
	if err := d.Start(); err != nil {
		return err
	}

	printBanner(cmd.OutOrStdout(), cfg, d.Addr())
	return d.Wait(cmd.Context())
}

func printBanner(w io.Writer, cfg *config.Config, addr string) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(w, banner)
	gray.Fprintf(w, "    version: %s\n\n", version)

	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "MCP:       http://%s/mcp\n", addr)
	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "WebSocket: ws://%s/ws\n", addr)
	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "Provider:  %s ", cfg.Provider.Name)
	gray.Fprintf(w, "(%s)\n", cfg.Provider.Model)
	if cfg.Identity.Number == "" {
		yellow.Fprintln(w, "    ! MY_NUMBER is not set; validate returns an empty string")
	}
	fmt.Fprintln(w)
}
