package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nitro-dev/nitro/internal/errors"
	"github.com/nitro-dev/nitro/pkg/guard"
	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/router"
)

func checkCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and route manifest",
		Long: `Load nitro.json and the route manifest, build the route
registry and assemble it over the declared layouts without
serving anything. Unknown middleware names are reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runCheck(*dir); err != nil {
				errors.Fprint(os.Stderr, err)
				return errCheckFailed
			}
			return nil
		},
	}
}

var errCheckFailed = errors.Newf(errors.CategoryCLI, "check failed")

func runCheck(dir string) error {
	p, err := loadProject(dir)
	if err != nil {
		return err
	}
	defer p.close()
	success("Loaded %s", p.config.Path())

	reg, err := route.Build(p.manifest.Modules)
	if err != nil {
		return err
	}
	success("Found %d routes in %d modules", reg.Len(), len(p.manifest.Modules))

	resolver := guard.NewResolver(nil)
	tree, err := router.Assemble(reg, p.manifest.Layouts, router.Options{Resolver: resolver})
	if err != nil {
		return err
	}
	success("Assembled %d layouts", len(tree.Layouts))

	unknown := resolver.Validate(reg)
	for _, name := range unknown {
		warn("Unknown middleware %q is skipped at runtime", name)
	}
	if len(unknown) == 0 {
		success("All middleware resolved")
	}
	return nil
}
