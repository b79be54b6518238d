// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/walteh/to-uni/pkg/errdefs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)

	cmd := newRootCmd(a)
	if args == nil {
		// cobra falls back to os.Args for nil
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return errdefs.ExitOK
	}

	a.printError(err)
	return errdefs.ExitCode(err)
}

// printError writes err for a human. With --debug the error details and
// stack are included.
func (a *app) printError(err error) {
	prefix := color.New(color.FgRed, color.Bold).Sprint("to-uni:")
	if a.v.GetBool("debug") {
		fmt.Fprintf(a.stderr, "%s % +v\n", prefix, err)
	} else {
		fmt.Fprintf(a.stderr, "%s %v\n", prefix, err)
	}

	if errdefs.ExitCode(err) == errdefs.ExitUsage {
		fmt.Fprintln(a.stderr, color.New(color.Faint).Sprint("Run 'to-uni --help' for usage."))
	}
}
