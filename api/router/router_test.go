package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/sshcollectorpro/intreport/addone/modes/platforms/cisco_mds"
	"github.com/sshcollectorpro/intreport/api/handler"
	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/internal/service"
)

const replayDir = "../../testdata/replay"

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, logPath string) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Runner: config.RunnerConfig{Type: "replay", ReplayDir: replayDir},
		Report: config.ReportConfig{Platform: "cisco_mds", DefaultMode: "physical", DescriptionCap: 65},
		Output: config.OutputConfig{Backend: "local", BaseDir: t.TempDir(), MkdirIfMissing: true},
	}
	svc := service.NewReportService(cfg, nil,
		service.WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
		service.WithRunnerFactory(func(service.Target) (service.Runner, error) {
			return service.NewReplayRunner(replayDir, config.OutputFilterConfig{}), nil
		}),
	)
	var logs *handler.LogsHandler
	if logPath != "" {
		logs = handler.NewLogsHandler(logPath)
	}
	return SetupRouter(handler.NewReportHandler(svc, nil, "cisco_mds"), logs, gin.TestMode)
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestHealthAndModes(t *testing.T) {
	r := newTestRouter(t, "")

	w, env := do(t, r, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SUCCESS", env.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, env = do(t, r, http.MethodGet, "/api/v1/modes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var infos []service.ModeInfo
	require.NoError(t, json.Unmarshal(env.Data, &infos))
	names := make([]string, 0, len(infos))
	for _, i := range infos {
		names = append(names, i.Name)
	}
	assert.Subset(t, names, []string{"physical", "congestion", "statistics", "transceiver"})
}

func TestRequestIDPassthrough(t *testing.T) {
	r := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/reports/render", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRender(t *testing.T) {
	r := newTestRouter(t, "")

	w, env := do(t, r, http.MethodPost, "/api/v1/reports/render", gin.H{
		"mode":   "statistics",
		"output": "fc1/3\n    Rx total frames: 42\n",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Report.Records, 1)
	assert.Equal(t, "fc1/3", res.Report.Records[0].ID)
	assert.Equal(t, "42", res.Report.Records[0].Fields["intf_frames_received"])
	assert.Equal(t, "2026-01-02 03:04:05 show interface counters detailed", res.Banner)

	w, env = do(t, r, http.MethodPost, "/api/v1/reports/render", gin.H{"mode": "statistics"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMS", env.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/reports/render", gin.H{"mode": "nope", "output": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_MODE", env.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/reports/render", gin.H{"filter": "zz", "output": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMS", env.Code)
}

func TestCollect(t *testing.T) {
	r := newTestRouter(t, "")

	w, env := do(t, r, http.MethodPost, "/api/v1/reports/collect", gin.H{"mode": "physical"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMS", env.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/reports/collect", gin.H{
		"mode":        "physical",
		"errors_only": true,
		"target":      gin.H{"host": "mds-01", "username": "admin"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "physical", res.Mode)
	assert.Equal(t, 1, res.Report.Rows)
	assert.Contains(t, strings.Join(res.Report.Lines, "\n"), "|fc1/1|")
}

func TestRunsWithoutHistory(t *testing.T) {
	r := newTestRouter(t, "")
	w, env := do(t, r, http.MethodGet, "/api/v1/reports/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "HISTORY_DISABLED", env.Code)
}

func TestTailLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intreport.log")
	lines := `{"level":"info","msg":"report completed","mode":"physical"}
{"level":"warning","msg":"auxiliary command failed"}
{"level":"info","msg":"report completed","mode":"congestion"}
{"level":"error","msg":"report command failed"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	r := newTestRouter(t, path)

	w, env := do(t, r, http.MethodGet, "/api/v1/logs?limit=1&q=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Count int      `json:"count"`
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, 1, data.Count)
	assert.Contains(t, data.Lines[0], "congestion")

	w, env = do(t, r, http.MethodGet, "/api/v1/logs?level=error", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.Count)

	w, _ = do(t, newTestRouter(t, ""), http.MethodGet, "/api/v1/logs", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
