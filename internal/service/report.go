package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sshcollectorpro/intreport/addone/modes"
	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/internal/filter"
	"github.com/sshcollectorpro/intreport/internal/model"
	"github.com/sshcollectorpro/intreport/internal/render"
	"github.com/sshcollectorpro/intreport/internal/report"
	"github.com/sshcollectorpro/intreport/internal/version"
	"github.com/sshcollectorpro/intreport/pkg/logger"
	"github.com/sshcollectorpro/intreport/pkg/ssh"
)

const showVersionCommand = "show version"

var (
	// ErrUnknownMode 平台下没有该模式
	ErrUnknownMode = errors.New("unknown report mode")
	// ErrUnsupportedVersion 设备版本低于模式要求
	ErrUnsupportedVersion = errors.New("report mode not supported by device version")
)

// ReportService 报表服务：采集输出、生成表格、写入与记录
type ReportService struct {
	cfg       *config.Config
	writer    ReportWriter
	history   *History
	briefs    BriefCache
	now       func() time.Time
	newRunner func(Target) (Runner, error)
}

// Option 服务选项
type Option func(*ReportService)

// WithHistory 启用运行记录
func WithHistory(h *History) Option { return func(s *ReportService) { s.history = h } }

// WithWriter 替换写入器
func WithWriter(w ReportWriter) Option { return func(s *ReportService) { s.writer = w } }

// WithBriefCache 替换分类缓存
func WithBriefCache(c BriefCache) Option { return func(s *ReportService) { s.briefs = c } }

// WithRunnerFactory 替换执行器的创建方式
func WithRunnerFactory(f func(Target) (Runner, error)) Option {
	return func(s *ReportService) { s.newRunner = f }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option { return func(s *ReportService) { s.now = now } }

// NewReportService 创建报表服务；pool 为 nil 时不能采集远端设备
func NewReportService(cfg *config.Config, pool *ssh.Pool, opts ...Option) *ReportService {
	s := &ReportService{
		cfg: cfg,
		now: time.Now,
		newRunner: func(t Target) (Runner, error) {
			return NewRunner(cfg, pool, t)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.writer == nil {
		s.writer = NewStorageWriter(cfg)
	}
	if s.briefs == nil {
		s.briefs = NewBriefCache(cfg.Cache.Redis.TTL)
	}
	return s
}

// Run 采集并生成报表
func (s *ReportService) Run(ctx context.Context, req Request) (*Result, error) {
	res, m, pf, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	log := logger.WithFields(logrus.Fields{"run_id": res.RunID, "mode": res.Mode, "device": deviceLabel(req.Target)})

	runner, err := s.newRunner(req.Target)
	if err != nil {
		return nil, err
	}

	if s.cfg.Report.DetectVersion || m.MinVersion != "" {
		ver, err := detectVersion(ctx, runner)
		if err != nil {
			log.WithError(err).Warn("version detection failed")
			res.warn(err.Error())
		}
		res.Version = ver
		if m.MinVersion != "" && ver != "" && !version.AtLeast(ver, m.MinVersion) {
			err := fmt.Errorf("%w: %s requires %s, device runs %s", ErrUnsupportedVersion, m.Name, m.MinVersion, ver)
			s.record(ctx, req, res, err)
			return nil, err
		}
	}

	in, err := s.fetch(ctx, runner, m, req, pf, res)
	if err != nil {
		if req.Strict || s.cfg.Report.Strict {
			s.record(ctx, req, res, err)
			return nil, err
		}
		log.WithError(err).Error("report command failed; producing an empty report")
		res.warn(err.Error())
		res.Status = model.RunStatusPartial
	}

	s.build(res, m, pf, req, in)
	if err := s.store(ctx, req, res); err != nil {
		s.record(ctx, req, res, err)
		return nil, err
	}
	s.record(ctx, req, res, nil)

	log.WithFields(logrus.Fields{"admitted": res.Report.Admitted, "rows": res.Report.Rows}).Info("report completed")
	return res, nil
}

// Render 对已有的命令输出生成报表，不采集、不写入
func (s *ReportService) Render(req Request, in report.Input) (*Result, error) {
	res, m, pf, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	s.build(res, m, pf, req, in)
	return res, nil
}

func (s *ReportService) prepare(req Request) (*Result, *modes.Mode, filter.PortFilter, error) {
	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		platform = s.cfg.Report.Platform
	}
	name := strings.TrimSpace(req.Mode)
	if name == "" {
		name = s.cfg.Report.DefaultMode
	}
	m, ok := modes.Get(platform, name)
	if !ok {
		return nil, nil, filter.None, fmt.Errorf("%w: %s/%s", ErrUnknownMode, platform, name)
	}
	pf, err := filter.ParsePortFilter(req.Filter)
	if err != nil {
		return nil, nil, filter.None, err
	}
	return &Result{
		RunID:     uuid.NewString(),
		Platform:  platform,
		Mode:      m.Name,
		Status:    model.RunStatusSuccess,
		Timestamp: s.now(),
	}, m, pf, nil
}

// fetch 并行获取主命令、brief 与描述输出；只有主命令失败才返回错误
func (s *ReportService) fetch(ctx context.Context, runner Runner, m *modes.Mode, req Request, pf filter.PortFilter, res *Result) (report.Input, error) {
	var (
		in                report.Input
		briefErr, descErr error
		g                 errgroup.Group
	)

	g.Go(func() error {
		out, err := runner.Run(ctx, m.CommandFor(req.Range))
		if err != nil {
			return fmt.Errorf("run %q: %w", m.CommandFor(req.Range), err)
		}
		in.Main = out
		return nil
	})

	if pf.NeedsClassification() {
		cmd := m.BriefCommandFor(req.Range)
		key := briefKey(runner.Name(), cmd)
		g.Go(func() error {
			if v, ok := s.briefs.Get(ctx, key); ok {
				in.Brief = v
				return nil
			}
			out, err := runner.Run(ctx, cmd)
			if err != nil {
				briefErr = fmt.Errorf("run %q: %w", cmd, err)
				return nil
			}
			in.Brief = out
			s.briefs.Set(ctx, key, out)
			return nil
		})
	}

	if req.Description {
		cmd := m.DescriptionCommandFor(req.Range)
		g.Go(func() error {
			out, err := runner.Run(ctx, cmd)
			if err != nil {
				descErr = fmt.Errorf("run %q: %w", cmd, err)
				return nil
			}
			in.Descriptions = out
			return nil
		})
	}

	err := g.Wait()
	for _, e := range []error{briefErr, descErr} {
		if e != nil {
			logger.WithError(e).WithField("run_id", res.RunID).Warn("auxiliary command failed")
			res.warn(e.Error())
			res.Status = model.RunStatusPartial
		}
	}
	return in, err
}

func (s *ReportService) build(res *Result, m *modes.Mode, pf filter.PortFilter, req Request, in report.Input) {
	res.Report = report.Build(m, req.Range, in, report.Options{
		Filter:         pf,
		ErrorsOnly:     req.ErrorsOnly,
		Description:    req.Description,
		DescriptionCap: s.cfg.Report.DescriptionCap,
	})
	res.Banner = render.Banner(res.Timestamp, res.Report.Title)
	res.Duration = s.now().Sub(res.Timestamp)
}

// store 写入指定文件与归档；文件写入失败为错误，归档失败只记录
func (s *ReportService) store(ctx context.Context, req Request, res *Result) error {
	if req.OutFile == "" && !req.Archive {
		return nil
	}
	content := res.Text()
	meta := ReportMeta{
		RunID:     res.RunID,
		Device:    deviceLabel(req.Target),
		Mode:      res.Mode,
		Timestamp: res.Timestamp,
	}

	if req.OutFile != "" {
		fm := meta
		fm.Path = req.OutFile
		fm.Append = req.Append
		obj, err := s.writer.Write(ctx, fm, content)
		if err != nil {
			return fmt.Errorf("write %s: %w", req.OutFile, err)
		}
		res.Stored = append(res.Stored, obj)
	}

	if req.Archive {
		obj, err := s.writer.Write(ctx, meta, content)
		if obj.URI != "" {
			res.Stored = append(res.Stored, obj)
		}
		if err != nil {
			logger.WithError(err).WithField("run_id", res.RunID).Warn("report archive degraded")
			res.warn(err.Error())
		}
	}
	return nil
}

func (s *ReportService) record(ctx context.Context, req Request, res *Result, runErr error) {
	if s.history == nil {
		return
	}
	run := &model.ReportRun{
		ID:         res.RunID,
		Platform:   res.Platform,
		Mode:       res.Mode,
		Device:     deviceLabel(req.Target),
		Range:      req.Range,
		Filter:     req.Filter,
		ErrorsOnly: req.ErrorsOnly,
		Version:    res.Version,
		Status:     res.Status,
		StartTime:  res.Timestamp,
		Duration:   s.now().Sub(res.Timestamp).Milliseconds(),
	}
	if res.Report != nil {
		run.Admitted = res.Report.Admitted
		run.Rows = res.Report.Rows
		run.Notes = strings.Join(res.Report.Notes, "\n")
	}
	if len(res.Stored) > 0 {
		run.Location = res.Stored[len(res.Stored)-1].URI
	}
	if runErr != nil {
		run.Status = model.RunStatusFailed
		run.ErrorMsg = runErr.Error()
	} else if len(res.Warnings) > 0 {
		run.ErrorMsg = strings.Join(res.Warnings, "\n")
	}
	if err := s.history.Record(ctx, run); err != nil {
		logger.WithError(err).WithField("run_id", res.RunID).Warn("failed to record report run")
	}
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func detectVersion(ctx context.Context, runner Runner) (string, error) {
	out, err := runner.Run(ctx, showVersionCommand)
	if err != nil {
		return "", fmt.Errorf("run %q: %w", showVersionCommand, err)
	}
	ver := version.Parse(out)
	if ver == "" {
		return "", fmt.Errorf("no system version in %q output", showVersionCommand)
	}
	return ver, nil
}

func deviceLabel(t Target) string {
	if strings.TrimSpace(t.Host) == "" {
		return ""
	}
	return t.Host
}
