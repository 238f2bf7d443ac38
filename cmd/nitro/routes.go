package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nitro-dev/nitro"
	"github.com/nitro-dev/nitro/pkg/router"
)

func routesCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routes of the application",
		Long: `List every route in the order the router mounts them:
layout by layout, then module and page name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(*dir)
			if err != nil {
				return err
			}
			defer p.close()

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			app, err := nitro.Setup(context.Background(), p.appConfig(logger), p.manifest.Layouts...)
			if err != nil {
				return err
			}
			defer app.Close()

			printRoutes(os.Stdout, app.Tree().Table())
			return nil
		},
	}
}

func printRoutes(w io.Writer, rows []router.Row) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYOUT\tMETHOD\tPATH\tGUARDS\tPAGE\tTITLE")
	for _, r := range rows {
		guards := strings.Join(r.Guards, ",")
		if guards == "" {
			guards = "-"
		}
		page := r.Page
		if r.Redirect != "" {
			page = "→ " + r.Redirect
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Layout, r.Method, r.Path, guards, page, r.Title)
	}
	tw.Flush()
}
