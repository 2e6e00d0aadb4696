package main

import (
	"strings"

	"github.com/spf13/cobra"

	svgconv "github.com/galihrivanto/go-svgconv"
	"github.com/galihrivanto/go-svgconv/internal/config"
	"github.com/galihrivanto/go-svgconv/internal/output"
)

// newFormatsCmd creates the formats command.
func newFormatsCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List conversion backends and the formats they write",
		Long: `List every conversion backend, whether it can run on this system and
which output formats it supports. The auto backend uses the first available
backend that supports the requested format, preferring inkscape.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFormats(cmd, global)
		},
	}
}

func runFormats(cmd *cobra.Command, global *globalOptions) error {
	cfg, err := global.load(cmd)
	if err != nil {
		return err
	}

	opts := global.converterOptions(cfg, global.logger(cmd))
	printer := output.NewPrinter(cmd.OutOrStdout(), output.IsTTY(cmd.OutOrStdout()))

	rows := make([][]string, 0, 2)
	for _, conv := range svgconv.Backends(opts...) {
		status := "available"
		if !conv.Available() {
			status = "not found"
		}
		rows = append(rows, []string{conv.Name(), status, strings.Join(conv.Formats(), ", ")})
	}
	printer.Table([]string{"BACKEND", "STATUS", "FORMATS"}, rows)

	printer.Println()
	printer.KeyValue("Selected", cfg.Backend)
	if path := configPath(global); path != "" {
		printer.KeyValue("Config", path)
	}

	inkscape := svgconv.NewInkscape(opts...)
	if !inkscape.Available() {
		printer.Warn("%s not found, pdf/ps/eps/emf/wmf output is unavailable", cfg.Inkscape)
		return nil
	}

	version, err := inkscape.Version(cmd.Context())
	if err != nil {
		printer.Warn("cannot determine inkscape version: %v", err)
		return nil
	}
	printer.KeyValue("Inkscape", version)

	return nil
}

func configPath(global *globalOptions) string {
	if global.configPath != "" {
		return global.configPath
	}
	return config.DefaultPath()
}
