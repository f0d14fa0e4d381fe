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

// Command codexec-admin is a thin client for the admin control plane:
// it dials the daemon's Unix socket, completes AdminConnect, issues one
// command and prints the reply, colorized the way the teacher's own
// CLI tooling does with github.com/fatih/color.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sabouaram/codexec/protocol"
)

var socketPath string

func dial() (*protocol.Conn, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, err
	}
	c := protocol.NewConn(conn)
	if err := c.WriteMessage(protocol.TypeAdminConnect, 1, protocol.AdminConnect{}); err != nil {
		return nil, err
	}
	if _, err := c.ReadMessage(); err != nil {
		return nil, err
	}
	return c, nil
}

func send(typ protocol.Type, payload interface{}) error {
	c, err := dial()
	if err != nil {
		return err
	}
	if err := c.WriteMessage(typ, 2, payload); err != nil {
		return err
	}
	reply, err := c.ReadMessage()
	if err != nil {
		return err
	}
	return render(reply)
}

func render(msg protocol.Message) error {
	switch msg.Header.Type {
	case protocol.TypeError:
		var e protocol.ErrorPayload
		if err := protocol.Unmarshal(msg.Payload, &e); err != nil {
			return err
		}
		color.Red("error [%d]: %s", e.Code, e.Message)
		return fmt.Errorf(e.Message)

	case protocol.TypeAdminAck:
		color.Green("ok")

	case protocol.TypeAdminTextTable:
		var t protocol.AdminTextTable
		if err := protocol.Unmarshal(msg.Payload, &t); err != nil {
			return err
		}
		for i, row := range t.Rows {
			if i == 0 {
				color.Cyan(row)
			} else {
				fmt.Println(row)
			}
		}

	case protocol.TypeAdminStatsPayload:
		var s protocol.AdminStatsPayload
		if err := protocol.Unmarshal(msg.Payload, &s); err != nil {
			return err
		}
		color.Cyan("sessions: %d active / %d total", s.SessionsActive, s.SessionsTotal)
		color.Cyan("jobs:     %d active / %d total (%d completed, %d failed, %d cancelled, %d timeout)",
			s.JobsActive, s.JobsTotal, s.JobsCompleted, s.JobsFailed, s.JobsCancelled, s.JobsTimeout)
		fmt.Printf("bytes in/out: %d / %d\n", s.BytesIn, s.BytesOut)
		fmt.Printf("avg job wall time: %.1fms\n", s.AvgJobWallTimeMs)

	default:
		fmt.Printf("unexpected reply type %d\n", msg.Header.Type)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{Use: "codexec-admin", Short: "admin client for codexecd"}
	root.PersistentFlags().StringVar(&socketPath, "admin-socket", "/var/run/codexecd/admin.sock", "admin control plane unix socket path")

	root.AddCommand(&cobra.Command{
		Use:   "clients",
		Short: "list connected sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(protocol.TypeAdminListClients, protocol.AdminListClients{})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "jobs [scope]",
		Short: `list jobs (scope: "", active, all, completed)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := "active"
			if len(args) > 0 {
				scope = args[0]
			}
			return send(protocol.TypeAdminListJobs, protocol.AdminListJobs{Scope: scope})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "show server statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			detailed, _ := cmd.Flags().GetBool("detailed")
			return send(protocol.TypeAdminServerStats, protocol.AdminServerStats{Detailed: detailed})
		},
	})
	root.Commands()[len(root.Commands())-1].Flags().Bool("detailed", false, "include host load/memory metrics")

	root.AddCommand(&cobra.Command{
		Use:   "kill <job-id>",
		Short: "cancel a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			return send(protocol.TypeAdminKillJob, protocol.AdminKillJob{JobID: uint32(id), Force: force})
		},
	})
	root.Commands()[len(root.Commands())-1].Flags().Bool("force", false, "SIGKILL instead of SIGTERM")

	root.AddCommand(&cobra.Command{
		Use:   "disconnect <session-id>",
		Short: "disconnect a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			return send(protocol.TypeAdminDisconnect, protocol.AdminDisconnectClient{SessionID: uint32(id), Force: force})
		},
	})
	root.Commands()[len(root.Commands())-1].Flags().Bool("force", false, "close the socket instead of a graceful kick")

	root.AddCommand(&cobra.Command{
		Use:   "config-get <key>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(protocol.TypeAdminConfig, protocol.AdminConfigCmd{Op: "get", Key: args[0]})
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "config-set <key> <value>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(protocol.TypeAdminConfig, protocol.AdminConfigCmd{Op: "set", Key: args[0], Value: args[1]})
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "config-list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(protocol.TypeAdminConfig, protocol.AdminConfigCmd{Op: "list"})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "shutdown",
		Short: "shut down the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			delay, _ := cmd.Flags().GetUint32("delay-seconds")
			return send(protocol.TypeAdminServerShutdown, protocol.AdminServerShutdown{Graceful: !force, DelaySeconds: delay})
		},
	})
	lastCmd := root.Commands()[len(root.Commands())-1]
	lastCmd.Flags().Bool("force", false, "skip the graceful drain")
	lastCmd.Flags().Uint32("delay-seconds", 0, "seconds to wait before shutting down")

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}
