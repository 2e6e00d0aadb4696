package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	svgconv "github.com/galihrivanto/go-svgconv"
	"github.com/galihrivanto/go-svgconv/internal/config"
	"github.com/galihrivanto/go-svgconv/internal/output"
	"github.com/galihrivanto/go-svgconv/internal/pipeline"
	"github.com/galihrivanto/go-svgconv/internal/render"
)

// globalOptions are the converter flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool

	backend    string
	inkscape   string
	retries    int
	dpi        float64
	width      int
	height     int
	background string
}

// renderOptions are the flags of the root render/convert command.
type renderOptions struct {
	input        string
	output       string
	stdout       bool
	replacements *pairArgs
	varsFile     string
	allowMissing bool
	escape       bool
	prompt       bool
}

// newRootCmd creates the root command for the svgconv CLI.
func newRootCmd() *cobra.Command {
	global := &globalOptions{}
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "svgconv -i path/to/file.svg [--replacements name:value ...] (--stdout | -o path/to/file.{ext})",
		Short: "Render SVG templates and convert them to image formats",
		Long: `svgconv processes an SVG file as a template, replaces variables
(such as {{ some_test_variable }}) with the given values and either prints
the result or converts it to the image format named by the output extension.

Examples:
  svgconv -i badge.svg --replacements label:build status:passing --stdout
  svgconv -i badge.svg --vars-file vars.yaml -o out/badge.png
  svgconv -i chart.svg -o chart.pdf --backend inkscape`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, global, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "in", "i", "", "Input SVG file (path/to/file.svg)")
	opts.replacements = newPairArgs(flags)
	flags.Var(opts.replacements, "replacements", `Replacement pairs var_name:"Text content"; bare arguments right after it continue the list`)
	flags.BoolVar(&opts.stdout, "stdout", false, "Print the result to stdout (in svg format)")
	flags.StringVarP(&opts.output, "out", "o", "", "Output file (file.svg, file.png, file.pdf, ...)")
	flags.StringVar(&opts.varsFile, "vars-file", "", "YAML or JSON file with replacement values")
	flags.BoolVar(&opts.allowMissing, "allow-missing", false, "Render placeholders without a value as empty text")
	flags.BoolVar(&opts.escape, "escape", false, "HTML/XML-escape substituted values")
	flags.BoolVar(&opts.prompt, "prompt", false, "Ask for missing placeholder values interactively")

	addGlobalFlags(cmd, global)
	opts.replacements.watch(cmd.Flags())
	opts.replacements.watch(cmd.PersistentFlags())

	// Configure lipgloss for TTY detection
	lipgloss.SetHasDarkBackground(true)

	cmd.AddCommand(newFormatsCmd(global))

	return cmd
}

func addGlobalFlags(cmd *cobra.Command, global *globalOptions) {
	def := config.Default()

	flags := cmd.PersistentFlags()
	flags.StringVar(&global.configPath, "config", "", "Config file (default "+config.FileName+" in the svgconv config dir)")
	flags.BoolVarP(&global.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&global.backend, "backend", def.Backend, "Conversion backend: auto, raster or inkscape")
	flags.StringVar(&global.inkscape, "inkscape", def.Inkscape, "Inkscape executable")
	flags.IntVar(&global.retries, "retries", def.Retries, "Retry a failed inkscape export N times")
	flags.Float64Var(&global.dpi, "dpi", def.DPI, "Export resolution")
	flags.IntVar(&global.width, "width", def.Width, "Output width in pixels")
	flags.IntVar(&global.height, "height", def.Height, "Output height in pixels")
	flags.StringVar(&global.background, "background", def.Background, "Background color, e.g. white or #ff000080")
}

func runRender(cmd *cobra.Command, args []string, global *globalOptions, opts *renderOptions) error {
	flags := cmd.Flags()

	pairs, extra := opts.replacements.split(args)
	if len(extra) > 0 {
		return output.NewUserError("unrecognized arguments: " + strings.Join(extra, " "))
	}

	req := pipeline.Request{
		Input:        opts.input,
		InputSet:     flags.Changed("in"),
		Output:       opts.output,
		OutputSet:    flags.Changed("out"),
		Stdout:       opts.stdout,
		Pairs:        pairs,
		VarsFile:     opts.varsFile,
		AllowMissing: opts.allowMissing,
		Escape:       opts.escape,
		Prompt:       opts.prompt,
	}
	if _, err := req.Validate(); err != nil {
		return err
	}

	cfg, err := global.load(cmd)
	if err != nil {
		return err
	}
	if !flags.Changed("allow-missing") {
		req.AllowMissing = cfg.AllowMissing
	}
	if !flags.Changed("escape") {
		req.Escape = cfg.Escape
	}

	logger := global.logger(cmd)
	conv, err := svgconv.New(global.converterOptions(cfg, logger)...)
	if err != nil {
		return output.NewUserError(err.Error())
	}

	runner := &pipeline.Runner{
		Converter: conv,
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
		Logger:    logger,
	}
	if req.Prompt {
		runner.Prompter = render.NewSurveyPrompter()
	}

	return runner.Run(cmd.Context(), req)
}

// load reads the config file and lets explicitly set flags override it.
func (g *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, output.NewIOError("cannot read config", err)
		}
		return nil, output.NewUserError(err.Error())
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = strings.ToLower(strings.TrimSpace(g.backend))
	}
	if flags.Changed("inkscape") {
		cfg.Inkscape = g.inkscape
	}
	if flags.Changed("retries") {
		cfg.Retries = g.retries
	}
	if flags.Changed("dpi") {
		cfg.DPI = g.dpi
	}
	if flags.Changed("width") {
		cfg.Width = g.width
	}
	if flags.Changed("height") {
		cfg.Height = g.height
	}
	if flags.Changed("background") {
		cfg.Background = g.background
	}

	if err := cfg.Validate(); err != nil {
		return nil, output.NewUserError(fmt.Sprintf("invalid flags: %v", err))
	}

	return cfg, nil
}

func (g *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (g *globalOptions) converterOptions(cfg *config.Config, logger *slog.Logger) []svgconv.Option {
	return append(cfg.Options(),
		svgconv.Verbose(g.verbose),
		svgconv.Logger(logger),
	)
}
