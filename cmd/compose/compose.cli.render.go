package main

import (
	"github.com/spf13/cobra"

	compose "github.com/itsatony/go-compose"
)

type renderConfig struct {
	engineFlags
	data     string
	dataFile string
	output   string
}

func newRenderCmd() *cobra.Command {
	cfg := &renderConfig{}
	cmd := &cobra.Command{
		Use:   CmdNameRender + " NAME",
		Short: "Render a template with data",
		Long: `Render a named template from the configured sources.

Pass "-" as NAME to read the template source from stdin; compositions
inside it still resolve against --dir and --config.`,
		Example: `  compose render --dir templates page.html --data '{"user": "ann"}'
  compose render --config compose.yaml -f data.yaml -o out.html page.html
  echo '{% compose "card.html" %}hi{% endcompose %}' | compose render -d templates -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, cfg, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&cfg.dirs, FlagDir, FlagDirShort, nil, FlagUsageDir)
	flags.StringVarP(&cfg.configPath, FlagConfig, FlagConfigShort, "", FlagUsageConfig)
	flags.IntVar(&cfg.maxDepth, FlagMaxDepth, 0, FlagUsageMaxDepth)
	flags.StringVar(&cfg.data, FlagData, "", FlagUsageData)
	flags.StringVarP(&cfg.dataFile, FlagDataFile, FlagDataFileShort, "", FlagUsageDataFile)
	flags.StringVarP(&cfg.output, FlagOutput, FlagOutputShort, FlagDefaultOutput, FlagUsageOutput)
	cmd.MarkFlagsMutuallyExclusive(FlagData, FlagDataFile)
	return cmd
}

func runRender(cmd *cobra.Command, cfg *renderConfig, name string) error {
	stdin := cmd.InOrStdin()

	var source []byte
	if name == StdinTemplateName {
		raw, err := readInput(InputSourceStdin, stdin)
		if err != nil {
			return err
		}
		source = raw
	}

	rawData := []byte(cfg.data)
	if cfg.dataFile != "" {
		if cfg.dataFile == InputSourceStdin && source != nil {
			return fail(ExitCodeUsageError, ErrMsgReadStdinFailed, errStdinTaken)
		}
		raw, err := readInput(cfg.dataFile, stdin)
		if err != nil {
			return err
		}
		rawData = raw
	}
	data, err := parseData(rawData)
	if err != nil {
		return err
	}

	engine, closeFn, err := cfg.engineFor(source != nil)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	ctx := cmd.Context()
	var out string
	if source != nil {
		out, err = engine.RenderString(ctx, string(source), data)
	} else {
		out, err = engine.Render(ctx, name, data)
	}
	if err != nil {
		return fail(ExitCodeError, ErrMsgRenderFailed, err)
	}
	return writeOutput(cfg.output, []byte(out), cmd.OutOrStdout())
}

// engineFor allows a source-less engine for stdin templates that
// compose nothing.
func (c *renderConfig) engineFor(fromStdin bool) (*compose.Engine, func() error, error) {
	if fromStdin && c.configPath == "" && len(c.dirs) == 0 {
		opts := []compose.Option{}
		if c.maxDepth > 0 {
			opts = append(opts, compose.WithMaxDepth(c.maxDepth))
		}
		engine, err := compose.New(opts...)
		if err != nil {
			return nil, nil, fail(ExitCodeError, ErrMsgEngineFailed, err)
		}
		return engine, func() error { return nil }, nil
	}
	return c.newEngine()
}
