package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/harun/quill/internal/config"
	"github.com/spf13/cobra"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long:  `Probe a running server's /healthz endpoint and print what it reports.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "", "server address host:port (default from config)")
	rootCmd.AddCommand(statusCmd)
}

type healthReport struct {
	Status      string                    `json:"status"`
	Tools       int                       `json:"tools"`
	Connections int                       `json:"connections"`
	Queue       map[string]map[string]int `json:"queue"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	addr := statusAddr
	if addr == "" {
		cfg, err := config.NewLoader(cfgFile).Resolve()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		addr = probeAddress(cfg.Server.Host, cfg.Server.Port)
	}

	out := cmd.OutOrStdout()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/healthz")
	if err != nil {
		color.New(color.FgRed).Fprintln(out, "Status: unreachable")
		return fmt.Errorf("probing %s: %w", addr, err)
	}
	defer resp.Body.Close()

	var report healthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return fmt.Errorf("invalid health response: %w", err)
	}

	color.New(color.FgGreen).Fprintf(out, "Status: %s\n", report.Status)
	fmt.Fprintf(out, "Address: %s\n", addr)
	fmt.Fprintf(out, "Tools: %d\n", report.Tools)
	fmt.Fprintf(out, "WebSocket connections: %d\n", report.Connections)
	for lane, stats := range report.Queue {
		fmt.Fprintf(out, "Queue %s: running %d/%d, waiting %d\n",
			lane, stats["running"], stats["concurrency"], stats["waiting"])
	}
	return nil
}

// probeAddress turns a listen address into one a client can dial
func probeAddress(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
