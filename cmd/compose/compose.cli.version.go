package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	compose "github.com/itsatony/go-compose"
)

// versionOutput represents JSON output for version
type versionOutput struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	GoVersion string   `json:"go_version"`
	Loaders   []string `json:"loaders"`
}

func newVersionCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := getVersionInfo()
			out := cmd.OutOrStdout()
			switch format {
			case OutputFormatText:
				fmt.Fprintf(out, FmtVersion, CLIName, v.Version, v.GoVersion)
				return nil
			case OutputFormatJSON:
				data, err := json.MarshalIndent(v, "", JSONIndent)
				if err != nil {
					return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			default:
				return fail(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", format))
			}
		},
	}
	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, FlagUsageFormat)
	return cmd
}

func getVersionInfo() versionOutput {
	v := versionOutput{
		Version:   compose.Version,
		Commit:    VersionUnknown,
		GoVersion: runtime.Version(),
		Loaders:   compose.ListLoaderDrivers(),
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == buildSettingRevision && s.Value != "" {
				v.Commit = s.Value
			}
		}
	}
	return v
}
