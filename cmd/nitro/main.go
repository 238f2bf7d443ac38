package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╗╔┬┌┬┐┬─┐┌─┐
  ║║║│ │ ├┬┘│ │
  ╝╚╝┴ ┴ ┴└─└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "nitro",
		Short: "Guarded, layout-based routing for server-rendered pages",
		Long: `Nitro serves pages declared in a route manifest.

Each route belongs to a layout and may be protected by guards
(isUser, isAdmin, isSubscribed). Features include:

  • Guard redirects resolved against per-session app state
  • Path or hash routing
  • Scroll restoration over WebSocket
  • Prometheus metrics and OpenTelemetry tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var dir string
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", "", "Project directory (default: search upward for nitro.json)")

	rootCmd.AddCommand(
		serveCmd(&dir),
		routesCmd(&dir),
		checkCmd(&dir),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the Nitro ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
