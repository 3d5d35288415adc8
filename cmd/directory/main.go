/*
MIT License

Copyright (c) 2026 the isy authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	liblog "github.com/nabbar/golib/logger"
	"github.com/spf13/cobra"

	"github.com/chatfabric/isy/internal/directory"
	"github.com/chatfabric/isy/internal/directoryconf"
)

func main() {
	var groupBinary string

	root := &cobra.Command{
		Use:   "directory <config_path>",
		Short: "directory runs the chat fabric's control-plane service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], groupBinary)
		},
	}
	root.Flags().StringVar(&groupBinary, "group-binary", "isy-group", "path to the group daemon executable to spawn per group")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath, groupBinary string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := liblog.New(func() context.Context { return ctx })

	cfg, err := directoryconf.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	d, err := directory.New(cfg, groupBinary, log)
	if err != nil {
		return fmt.Errorf("init directory: %w", err)
	}

	return d.Run(ctx)
}
