package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/intreport/pkg/logger"
	"github.com/sshcollectorpro/intreport/simulate"
)

func main() {
	var (
		configPath string
		cfg        simulate.Config
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:          "mdssim",
		Short:        "Simulated MDS switch that answers show commands from captured output",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if verbose {
				level = "debug"
			}
			if err := logger.Init(logger.Config{Level: level, Output: "stderr"}); err != nil {
				return err
			}
			if configPath != "" {
				loaded, err := simulate.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			srv, err := simulate.Start(cfg)
			if err != nil {
				return err
			}
			defer srv.Stop()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			logger.Info("simulated switch stopping")
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&configPath, "config", "c", "", "simulate config file; overrides the flags below")
	fl.StringVar(&cfg.Listen, "listen", "127.0.0.1:2222", "listen address")
	fl.StringVar(&cfg.Dir, "dir", "./testdata/replay", "directory of captured command output")
	fl.StringVar(&cfg.Hostname, "hostname", "mds-sim", "prompt hostname")
	fl.StringVar(&cfg.Password, "password", "nova", "login password for any user")
	fl.IntVar(&cfg.MaxConn, "max-conn", 16, "maximum concurrent connections")
	fl.DurationVar(&cfg.IdleTimeout, "idle-timeout", 0, "interactive session idle timeout")
	fl.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
