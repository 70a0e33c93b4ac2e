//Copyright (c) 2020 Uber Technologies, Inc.
//
//Licensed under the Uber Non-Commercial License (the "License");
//you may not use this file except in compliance with the License.
//You may obtain a copy of the License at the root directory of this project.
//
//See the License for the specific language governing permissions and
//limitations under the License.

// rtmbench runs transactional workloads on the host CPU and reports how the
// attempts ended.
//
//	rtmbench counter --workers 2 --iterations 10000
//	rtmbench sharing --iterations 100000
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valarauca/rtm/lib/rtm"
	"github.com/valarauca/rtm/lib/txn"
)

type options struct {
	configFile  string
	workers     int
	iterations  int
	maxAttempts int
	spin        int
	adaptive    bool
	verbose     bool
}

func (o *options) config(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(o.configFile)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("iterations") {
		cfg.Iterations = o.iterations
	}
	if flags.Changed("max-attempts") {
		cfg.Txn.MaxAttempts = o.maxAttempts
	}
	if flags.Changed("spin") {
		cfg.Txn.Spin = o.spin
	}
	if flags.Changed("adaptive") {
		cfg.Txn.Adaptive = o.adaptive
	}
	return cfg, cfg.validate()
}

func (o *options) logger() (*zap.Logger, error) {
	if o.verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printReport(w io.Writer, name string, r report) {
	fmt.Fprintf(w, "%s: total=%d expected=%d attempts=%d commits=%d fallbacks=%d surfaced=%d\n",
		name, r.Total, r.Expected, r.Attempts, r.Commits, r.Fallbacks, r.Surfaced)
	for _, c := range r.causes() {
		fmt.Fprintf(w, "  aborts[%s]=%d\n", c, r.Aborts[c])
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "rtmbench",
		Short:         "Exercise restricted transactional memory on this CPU",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "TOML config file")
	pf.IntVar(&o.workers, "workers", 2, "number of goroutines")
	pf.IntVar(&o.iterations, "iterations", 10000, "increments per goroutine")
	pf.IntVar(&o.maxAttempts, "max-attempts", txn.DefaultConfig().MaxAttempts, "hardware attempts before falling back")
	pf.IntVar(&o.spin, "spin", txn.DefaultConfig().Spin, "busy iterations between attempts")
	pf.BoolVar(&o.adaptive, "adaptive", false, "skip hardware attempts at sites that keep falling back")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	setup := func(cmd *cobra.Command) (Config, *zap.Logger, error) {
		cfg, err := o.config(cmd)
		if err != nil {
			return cfg, nil, err
		}
		logger, err := o.logger()
		if err != nil {
			return cfg, nil, errors.Wrap(err, "building logger")
		}
		if !rtm.Supported() {
			logger.Warn("CPU does not support RTM; every operation takes the fallback")
		}
		logger.Info("starting",
			zap.String("scenario", cmd.Name()),
			zap.Int("workers", cfg.Workers),
			zap.Int("iterations", cfg.Iterations),
			zap.Int("maxAttempts", cfg.Txn.MaxAttempts),
			zap.Bool("adaptive", cfg.Txn.Adaptive))
		return cfg, logger, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "counter",
		Short: "All workers increment one shared counter; checks no update is lost",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			r := counterScenario(cfg, txn.WithLogger(logger))
			printReport(out, "counter", r)
			if r.Total != r.Expected {
				return errors.Errorf("lost updates: counter is %d, want %d", r.Total, r.Expected)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "sharing",
		Short: "Workers increment private counters, aligned and packed on one line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			for _, aligned := range []bool{true, false} {
				name := "packed"
				if aligned {
					name = "aligned"
				}
				r := sharingScenario(cfg, aligned, txn.WithLogger(logger))
				printReport(out, name, r)
				if r.Total != r.Expected {
					return errors.Errorf("%s: counters sum to %d, want %d", name, r.Total, r.Expected)
				}
			}
			return nil
		},
	})
	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
