// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The weft command validates a Weft document, optionally against a schema,
// and prints any diagnostics to standard error.
//
// Exit codes: 0 on success (warnings allowed), 1 when a file cannot be
// read or an error-severity diagnostic is reported, 2 on usage errors.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bufbuild/weft"
	"github.com/bufbuild/weft/report"
)

// exitError carries a specific exit code out of a command's RunE.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

func main() {
	if err := newCommand().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.message != "" {
				fmt.Fprintln(os.Stderr, exit.message)
			}
			os.Exit(exit.code)
		}
		// Anything else came out of cobra itself: a usage problem.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "weft <path> [schema-path]",
		Short: "Validate a Weft configuration document",
		Args:  cobra.RangeArgs(1, 2),
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return &exitError{code: 1, message: err.Error()}
	}
	var schemaSrc []byte
	if len(args) == 2 {
		schemaSrc, err = os.ReadFile(args[1])
		if err != nil {
			return &exitError{code: 1, message: err.Error()}
		}
	}

	slog.Debug("validating", "path", args[0], "bytes", len(src), "schema", len(args) == 2)
	_, rep := weft.Validate(src, schemaSrc)

	renderer := report.NewRenderer(src)
	if err := renderer.RenderAll(cmd.ErrOrStderr(), &rep); err != nil {
		return &exitError{code: 1, message: err.Error()}
	}
	if slog.Default().Enabled(cmd.Context(), slog.LevelDebug) {
		for _, d := range rep.Diagnostics {
			slog.Debug("diagnostic",
				"severity", d.Severity.String(),
				"location", renderer.Location(d.Span.Start).String(),
			)
		}
	}
	if rep.HasErrors() {
		return &exitError{code: 1}
	}
	return nil
}
