/*
 * MIT License
 *
 * Copyright (c) 2023 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command codexecd is the compilation/execution service daemon: it
// binds the flags config.BindFlags declares, loads config.Runtime via
// config.Load, and runs daemon.Daemon until a signal or an admin
// ServerShutdown stops it.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sabouaram/codexec/config"
	"github.com/sabouaram/codexec/daemon"
	"github.com/sabouaram/codexec/srvlog"
)

var logLevel string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codexecd",
		Short: "networked multi-tenant code compilation/execution daemon",
		RunE:  runDaemon,
	}

	flags := config.BindFlags(cmd.Flags())
	_ = flags
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	rt, flags, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := srvlog.New(logLevel, os.Stderr)

	d, err := daemon.New(rt, flags, log)
	if err != nil {
		return fmt.Errorf("build daemon: %w", err)
	}

	log.WithField("listen", flags.ListenAddr).WithField("admin_socket", flags.AdminSocketPath).Info("codexecd starting")
	return d.Run(context.Background())
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
