package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/itsatony/go-cuserr"
	"github.com/spf13/cobra"

	compose "github.com/itsatony/go-compose"
)

type validateConfig struct {
	engineFlags
	format string
}

// validationResult is one template's outcome in JSON output.
type validationResult struct {
	Name   string `json:"name"`
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
	Line   string `json:"line,omitempty"`
	Column string `json:"column,omitempty"`
}

func newValidateCmd() *cobra.Command {
	cfg := &validateConfig{}
	cmd := &cobra.Command{
		Use:   CmdNameValidate + " [NAME...]",
		Short: "Parse templates without rendering them",
		Long: `Load and parse each named template and report syntax errors.

Without names every file under the --dir directories is checked.`,
		Example: `  compose validate --dir templates
  compose validate --config compose.yaml -F json page.html card.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&cfg.dirs, FlagDir, FlagDirShort, nil, FlagUsageDir)
	flags.StringVarP(&cfg.configPath, FlagConfig, FlagConfigShort, "", FlagUsageConfig)
	flags.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, FlagUsageFormat)
	return cmd
}

func runValidate(cmd *cobra.Command, cfg *validateConfig, names []string) error {
	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return fail(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", cfg.format))
	}

	if len(names) == 0 {
		listed, err := listDirTemplates(cfg.dirs)
		if err != nil {
			return err
		}
		names = listed
	}
	if len(names) == 0 {
		return fail(ExitCodeUsageError, ErrMsgNoTemplates, nil)
	}

	engine, closeFn, err := cfg.newEngine()
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	results := make([]validationResult, 0, len(names))
	failed := 0
	for _, name := range names {
		res := validationResult{Name: name, Valid: true}
		if _, err := engine.GetTemplate(cmd.Context(), name); err != nil {
			failed++
			res.Valid = false
			res.Error = err.Error()
			var customErr *cuserr.CustomError
			if errors.As(err, &customErr) {
				res.Line, _ = customErr.GetMetadata(compose.MetaKeyLine)
				res.Column, _ = customErr.GetMetadata(compose.MetaKeyColumn)
			}
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if cfg.format == OutputFormatJSON {
		if err := writeValidateJSON(out, results); err != nil {
			return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
		}
	} else {
		for _, res := range results {
			if res.Valid {
				fmt.Fprintf(out, FmtValidOK, res.Name)
			} else {
				fmt.Fprintf(out, FmtValidFail, res.Name, res.Error)
			}
		}
	}

	if failed > 0 {
		return fail(ExitCodeValidationError, ErrMsgValidationFailed, fmt.Errorf("%d of %d templates", failed, len(results)))
	}
	return nil
}

func listDirTemplates(dirs []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, dir := range dirs {
		names, err := compose.NewFilesystemLoader(dir).Names()
		if err != nil {
			return nil, fail(ExitCodeInputError, ErrMsgListTemplates, err)
		}
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func writeValidateJSON(w io.Writer, results []validationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", JSONIndent)
	return enc.Encode(results)
}
