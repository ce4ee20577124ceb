package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/intreport/addone/modes"
	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/internal/database"
	"github.com/sshcollectorpro/intreport/internal/report"
	"github.com/sshcollectorpro/intreport/internal/service"
	"github.com/sshcollectorpro/intreport/internal/version"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

// options 命令行参数
type options struct {
	configPath string
	platform   string

	statistics  bool
	physical    bool
	congestion  bool
	transceiver bool
	mode        string

	e, f, np, edge, core bool

	errorsOnly bool
	desc       bool
	outFile    string
	appendOut  bool
	archive    bool
	strict     bool

	device   string
	port     int
	username string
	password string
	keyFile  string
	replay   string

	listModes bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "intreport [range]",
		Short: "Tabular reports from show interface output",
		Long: `intreport runs "show interface" on a Cisco MDS switch (on-box, over SSH or from
captured output) and prints one row per interface.

The range accepts an fc or port-channel interface, an interface range or a list,
for example fc1/1-4,port-channel10.`,
		Version:       version.Build,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := ""
			if len(args) > 0 {
				rng = strings.TrimSpace(args[0])
			}
			return run(cmd.Context(), opts, rng, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fl := cmd.Flags()
	fl.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./configs/config.yaml when present)")
	fl.StringVar(&opts.platform, "platform", "", "mode platform (default report.platform)")

	fl.BoolVar(&opts.statistics, "statistics", false, "display statistics (non errors)")
	fl.BoolVar(&opts.physical, "physical-errors", false, "display physical errors (default)")
	fl.BoolVar(&opts.congestion, "congestion-errors", false, "display congestion errors")
	fl.BoolVar(&opts.transceiver, "transceiver", false, "display transceiver details")
	fl.StringVar(&opts.mode, "mode", "", "display a named mode, including custom modes")

	fl.BoolVar(&opts.e, "e", false, "only (T)E ports")
	fl.BoolVar(&opts.f, "f", false, "only (T)F ports")
	fl.BoolVar(&opts.np, "np", false, "only (T)NP ports")
	fl.BoolVar(&opts.edge, "edge", false, "only logical-type edge ports")
	fl.BoolVar(&opts.core, "core", false, "only logical-type core ports")

	fl.BoolVar(&opts.errorsOnly, "errors-only", false, "only interfaces with a non-zero value")
	fl.BoolVar(&opts.desc, "desc", false, "add the interface description column")
	fl.StringVar(&opts.outFile, "outfile", "", "write the report to a file instead of stdout")
	fl.BoolVar(&opts.appendOut, "append", false, "append to --outfile instead of overwriting")
	fl.BoolVar(&opts.archive, "archive", false, "archive the report to output.backend")
	fl.BoolVar(&opts.strict, "strict", false, "fail when the show interface command fails")

	fl.StringVar(&opts.device, "device", "", "collect from this switch over SSH")
	fl.IntVar(&opts.port, "port", 22, "SSH port")
	fl.StringVarP(&opts.username, "username", "u", "", "SSH username")
	fl.StringVarP(&opts.password, "password", "p", "", "SSH password")
	fl.StringVar(&opts.keyFile, "key-file", "", "SSH private key file")
	fl.StringVar(&opts.replay, "replay", "", "read captured command output from this directory")

	fl.BoolVar(&opts.listModes, "list-modes", false, "list report modes and exit")
	return cmd
}

func run(ctx context.Context, opts *options, rng string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Console:    stderr,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if _, err := modes.LoadCustom(cfg.Modes); err != nil {
		return fmt.Errorf("custom modes: %w", err)
	}

	platform := opts.platform
	if platform == "" {
		platform = cfg.Report.Platform
	}
	if opts.listModes {
		return listModes(stdout, platform)
	}

	req, err := buildRequest(opts, rng, platform)
	if err != nil {
		return err
	}

	if opts.replay != "" {
		cfg.Runner.Type = "replay"
		cfg.Runner.ReplayDir = opts.replay
	}
	if opts.strict {
		cfg.Report.Strict = true
	}

	var svcOpts []service.Option
	if cfg.History.Enabled {
		if err := database.InitSQLite(cfg.History.SQLite); err != nil {
			logger.WithError(err).Warn("run history disabled")
		} else {
			defer database.Close()
			svcOpts = append(svcOpts, service.WithHistory(service.NewHistory(database.GetDB())))
		}
	}

	pool := service.NewSSHPool(cfg)
	defer pool.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := service.NewReportService(cfg, pool, svcOpts...).Run(ctx, req)
	if err != nil {
		return err
	}

	for _, note := range res.Report.Notes {
		fmt.Fprintln(stdout, note)
	}
	if req.OutFile != "" {
		logger.WithField("path", req.OutFile).Info("report written")
		return nil
	}
	_, err = io.WriteString(stdout, res.Text())
	return err
}

// buildRequest 校验互斥选项并组装请求
func buildRequest(opts *options, rng, platform string) (service.Request, error) {
	typeFlags := map[string]bool{
		"--statistics":        opts.statistics,
		"--physical-errors":   opts.physical,
		"--congestion-errors": opts.congestion,
		"--transceiver":       opts.transceiver,
	}
	if opts.mode != "" {
		typeFlags["--mode "+opts.mode] = true
	}
	chosen, err := report.ValidateSelection("report type", typeFlags)
	if err != nil {
		return service.Request{}, err
	}

	filterName, err := report.ValidateSelection("port filter", map[string]bool{
		"e": opts.e, "f": opts.f, "np": opts.np, "edge": opts.edge, "core": opts.core,
	})
	if err != nil {
		return service.Request{}, err
	}

	if opts.appendOut && opts.outFile == "" {
		return service.Request{}, errors.New("--append requires --outfile")
	}
	if opts.device == "" && (opts.username != "" || opts.password != "" || opts.keyFile != "") {
		return service.Request{}, errors.New("SSH credentials require --device")
	}

	return service.Request{
		Platform:    platform,
		Mode:        modeForFlag(chosen),
		Range:       rng,
		Filter:      filterName,
		ErrorsOnly:  opts.errorsOnly,
		Description: opts.desc,
		Strict:      opts.strict,
		OutFile:     opts.outFile,
		Append:      opts.appendOut,
		Archive:     opts.archive,
		Target: service.Target{
			Host:     opts.device,
			Port:     opts.port,
			Username: opts.username,
			Password: opts.password,
			KeyFile:  opts.keyFile,
		},
	}, nil
}

// modeForFlag 选项名到模式名，未选择时使用默认模式
func modeForFlag(flag string) string {
	switch flag {
	case "":
		return ""
	case "--statistics":
		return "statistics"
	case "--physical-errors":
		return "physical"
	case "--congestion-errors":
		return "congestion"
	case "--transceiver":
		return "transceiver"
	}
	return strings.TrimPrefix(flag, "--mode ")
}

func listModes(w io.Writer, platform string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tMODE\tCOMMAND\tSUMMARY")
	for _, m := range service.DescribeModes(platform) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Platform, m.Name, m.Command, m.Summary)
	}
	return tw.Flush()
}
