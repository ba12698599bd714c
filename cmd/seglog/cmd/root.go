// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"io"
	"strconv"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/seglog/config"
	"github.com/ava-labs/seglog/seglog"
)

// Seglog runs a single command against the log in the configured
// directory.
type Seglog struct {
	configPath string
	dir        string
	logLevel   string

	config   *config.Config
	log      logging.Logger
	provider config.Provider
	seglog   *seglog.Shared
}

// Execute runs the command described by [args] and closes the log
// afterwards, whatever the outcome.
func (s *Seglog) Execute(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cmd := s.NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	err := cmd.ExecuteContext(ctx)

	errs := wrappers.Errs{}
	errs.Add(err, s.close())
	return errs.Err
}

func (s *Seglog) NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seglog",
		Short: "Indexed segmented log",
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cobra.EnablePrefixMatching = true
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.DisableAutoGenTag = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.PersistentFlags().StringVar(&s.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&s.dir, "dir", "", "log directory (overrides the config)")
	cmd.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "log level (overrides the config)")

	cmd.AddCommand(
		s.newAppendCmd(),
		s.newReadCmd(),
		s.newTruncateCmd(),
		s.newExpireCmd(),
		s.newBoundsCmd(),
		s.newDumpCmd(),
		s.newVerifyCmd(),
	)
	return cmd
}

// open is the PreRunE of every command that touches the log.
func (s *Seglog) open(*cobra.Command, []string) error {
	c, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	if len(s.dir) > 0 {
		c.Dir = s.dir
	}
	if len(s.logLevel) > 0 {
		c.LogLevel = s.logLevel
	}
	s.config = c

	logConfig, err := c.LogConfig()
	if err != nil {
		return err
	}
	s.log, err = newLogger(c, stderrWriter())
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	s.provider, err = c.OpenProvider(s.log, registry)
	if err != nil {
		return err
	}
	l, err := seglog.New(s.log, registry, s.provider, &mockable.Clock{}, logConfig)
	if err != nil {
		return err
	}
	s.seglog, err = seglog.NewShared(l, c.MaxConcurrentReads)
	if err != nil {
		_ = l.Close()
		return err
	}
	s.log.Debug("opened log",
		zap.String("dir", c.Dir),
		zap.String("backend", c.Backend),
		zap.Uint64("lowestIndex", l.LowestIndex()),
		zap.Uint64("highestIndex", l.HighestIndex()),
	)
	return nil
}

func (s *Seglog) close() error {
	errs := wrappers.Errs{}
	if s.seglog != nil {
		errs.Add(s.seglog.Close())
		s.seglog = nil
	}
	if s.provider != nil {
		errs.Add(s.provider.Close())
		s.provider = nil
	}
	if s.log != nil {
		s.log.Stop()
		s.log = nil
	}
	return errs.Err
}

func parseIndex(arg string) (uint64, error) {
	return strconv.ParseUint(arg, 10, 64)
}
