package main

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	compose "github.com/itsatony/go-compose"
)

var errStdinTaken = errors.New("template and data cannot both come from stdin")

// engineFlags are the template source flags shared by render and validate.
type engineFlags struct {
	dirs       []string
	configPath string
	maxDepth   int
}

// resolveConfig loads --config when given and layers the --dir list in
// front of its template directories.
func (f engineFlags) resolveConfig() (compose.Config, error) {
	cfg := compose.DefaultConfig()
	if f.configPath != "" {
		loaded, err := compose.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fail(ExitCodeInputError, ErrMsgConfigFailed, err)
		}
		cfg = loaded
	} else if len(f.dirs) == 0 {
		return cfg, fail(ExitCodeUsageError, ErrMsgNoSources, nil)
	}
	cfg.TemplateDirs = append(append([]string{}, f.dirs...), cfg.TemplateDirs...)
	if f.maxDepth > 0 {
		cfg.MaxDepth = f.maxDepth
	}
	return cfg, nil
}

func (f engineFlags) newEngine(opts ...compose.Option) (*compose.Engine, func() error, error) {
	cfg, err := f.resolveConfig()
	if err != nil {
		return nil, nil, err
	}
	return openEngine(cfg, opts...)
}

func openEngine(cfg compose.Config, opts ...compose.Option) (*compose.Engine, func() error, error) {
	engine, closeFn, err := compose.NewEngineFromConfig(cfg, opts...)
	if err != nil {
		return nil, nil, fail(ExitCodeError, ErrMsgEngineFailed, err)
	}
	return engine, closeFn, nil
}

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fail(ExitCodeInputError, ErrMsgReadStdinFailed, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fail(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}
	return data, nil
}

// parseData decodes a JSON or YAML mapping. JSON documents are valid
// YAML so one decoder covers both.
func parseData(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fail(ExitCodeInputError, ErrMsgInvalidData, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	var err error
	if path == FlagDefaultOutput {
		_, err = stdout.Write(data)
	} else {
		err = os.WriteFile(path, data, FilePermissions)
	}
	if err != nil {
		return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}
