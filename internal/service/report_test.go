package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/intreport/addone/modes"
	_ "github.com/sshcollectorpro/intreport/addone/modes/platforms/cisco_mds"
	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/internal/database"
	"github.com/sshcollectorpro/intreport/internal/model"
	"github.com/sshcollectorpro/intreport/internal/pattern"
	"github.com/sshcollectorpro/intreport/internal/report"
)

const replayDir = "../../testdata/replay"

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Runner: config.RunnerConfig{Type: "replay", ReplayDir: replayDir},
		Report: config.ReportConfig{Platform: "cisco_mds", DefaultMode: "physical", DescriptionCap: 65},
		Output: config.OutputConfig{Backend: "local", BaseDir: t.TempDir(), Prefix: "intreport", MkdirIfMissing: true},
	}
}

// countingRunner 包装回放执行器并统计调用，可注入失败
type countingRunner struct {
	inner Runner
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newCountingRunner() *countingRunner {
	return &countingRunner{
		inner: NewReplayRunner(replayDir, config.OutputFilterConfig{}),
		calls: map[string]int{},
		fail:  map[string]error{},
	}
}

func (r *countingRunner) Run(ctx context.Context, command string) (string, error) {
	r.mu.Lock()
	r.calls[command]++
	err := r.fail[command]
	r.mu.Unlock()
	if err != nil {
		return "", err
	}
	return r.inner.Run(ctx, command)
}

func (r *countingRunner) Name() string { return "counting" }

func (r *countingRunner) count(command string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[command]
}

func newService(t *testing.T, cfg *config.Config, r Runner, opts ...Option) *ReportService {
	t.Helper()
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRunnerFactory(func(Target) (Runner, error) { return r, nil }),
	}, opts...)
	return NewReportService(cfg, nil, opts...)
}

func TestRun_Replay(t *testing.T) {
	cfg := testConfig(t)
	svc := NewReportService(cfg, nil, WithClock(func() time.Time { return fixedNow }))

	res, err := svc.Run(context.Background(), Request{ErrorsOnly: true})
	require.NoError(t, err)

	assert.Equal(t, "physical", res.Mode)
	assert.Equal(t, model.RunStatusSuccess, res.Status)
	assert.Equal(t, "2026-01-02 03:04:05 show interface counters detailed", res.Banner)
	assert.Equal(t, 1, res.Report.Rows)
	assert.Equal(t, 5, res.Report.Admitted)
	assert.NotEmpty(t, res.RunID)

	text := res.Text()
	assert.True(t, strings.HasPrefix(text, res.Banner+"\n+-----+"), text)
	assert.Contains(t, text, "|fc1/1|")
}

func TestRun_UnknownMode(t *testing.T) {
	svc := newService(t, testConfig(t), newCountingRunner())
	_, err := svc.Run(context.Background(), Request{Mode: "nope"})
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = svc.Run(context.Background(), Request{Filter: "xyz"})
	assert.Error(t, err)
}

func TestRun_BriefCached(t *testing.T) {
	r := newCountingRunner()
	svc := newService(t, testConfig(t), r, WithBriefCache(NewMemoryBriefCache(time.Minute)))

	for i := 0; i < 2; i++ {
		res, err := svc.Run(context.Background(), Request{Filter: "f"})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Report.Rows)
	}
	assert.Equal(t, 2, r.count("show interface counters detailed"))
	assert.Equal(t, 1, r.count("show interface brief"))
}

func TestRun_MainFailure(t *testing.T) {
	r := newCountingRunner()
	r.fail["show interface counters detailed"] = errors.New("session closed")
	svc := newService(t, testConfig(t), r)

	res, err := svc.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPartial, res.Status)
	assert.Nil(t, res.Report.Lines)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "session closed")

	_, err = svc.Run(context.Background(), Request{Strict: true})
	assert.ErrorContains(t, err, "session closed")
}

func TestRun_AuxiliaryFailuresTolerated(t *testing.T) {
	r := newCountingRunner()
	r.fail["show interface brief"] = errors.New("timeout")
	r.fail["show interface description"] = errors.New("timeout")
	svc := newService(t, testConfig(t), r)

	res, err := svc.Run(context.Background(), Request{Filter: "e", Description: true, ErrorsOnly: true})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPartial, res.Status)
	assert.Len(t, res.Warnings, 2)
	// 没有分类数据时全部放行
	assert.Equal(t, 5, res.Report.Admitted)
	assert.Len(t, res.Report.Notes, 5)
	assert.Equal(t, 1, res.Report.Rows)
}

func TestRun_VersionGate(t *testing.T) {
	modes.Register(&modes.Mode{
		Platform:   "test_version",
		Name:       "future",
		Command:    "show interface {range}counters detailed",
		MinVersion: "9.2(1)",
		Table: pattern.Table{
			pattern.Rule(pattern.N(3), pattern.Col(pattern.Heading("Framing"), pattern.MustParse("%x framing errors")...)),
		},
	})
	t.Cleanup(func() { modes.Unregister("test_version") })

	r := newCountingRunner()
	svc := newService(t, testConfig(t), r)
	_, err := svc.Run(context.Background(), Request{Platform: "test_version", Mode: "future"})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Equal(t, 0, r.count("show interface counters detailed"))

	cfg := testConfig(t)
	cfg.Report.DetectVersion = true
	res, err := newService(t, cfg, r).Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "8.4(2c)", res.Version)
}

func TestRun_OutFileAppend(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "reports", "physical.txt")
	svc := newService(t, cfg, newCountingRunner())

	for i := 0; i < 2; i++ {
		res, err := svc.Run(context.Background(), Request{ErrorsOnly: true, OutFile: out, Append: true})
		require.NoError(t, err)
		require.Len(t, res.Stored, 1)
		assert.Equal(t, "file://"+out, res.Stored[0].URI)
	}
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "2026-01-02 03:04:05 show interface counters detailed"))

	_, err = svc.Run(context.Background(), Request{ErrorsOnly: true, OutFile: out})
	require.NoError(t, err)
	b, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b), "show interface counters detailed"))
}

func TestRun_ArchiveAndHistory(t *testing.T) {
	cfg := testConfig(t)
	db, err := database.Open(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	history := NewHistory(db)
	svc := newService(t, cfg, newCountingRunner(), WithHistory(history))

	res, err := svc.Run(context.Background(), Request{
		Mode:       "congestion",
		Target:     Target{Host: "mds-01"},
		Archive:    true,
		ErrorsOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Stored, 1)
	want := filepath.Join(cfg.Output.BaseDir, "intreport", "mds-01", "20260102_030405", res.RunID, "congestion.txt")
	assert.Equal(t, "file://"+want, res.Stored[0].URI)
	assert.FileExists(t, want)

	runs, err := history.List(context.Background(), HistoryQuery{Mode: "congestion"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, "mds-01", runs[0].Device)
	assert.Equal(t, 2, runs[0].Rows)
	assert.Equal(t, "file://"+want, runs[0].Location)

	runs, err = history.List(context.Background(), HistoryQuery{Mode: "physical"})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRender(t *testing.T) {
	svc := newService(t, testConfig(t), newCountingRunner())
	res, err := svc.Render(Request{Mode: "statistics"}, report.Input{Main: "fc1/3\n    Rx total frames: 42\n"})
	require.NoError(t, err)
	require.Len(t, res.Report.Records, 1)
	assert.Equal(t, "42", res.Report.Records[0].Fields["intf_frames_received"])
}

func TestDescribeModes(t *testing.T) {
	infos := DescribeModes("cisco_mds")
	names := make([]string, 0, len(infos))
	for _, i := range infos {
		names = append(names, i.Name)
	}
	assert.Subset(t, names, []string{"congestion", "physical", "statistics", "transceiver"})
	assert.Contains(t, infos[0].Columns, "TBBZ")
}
