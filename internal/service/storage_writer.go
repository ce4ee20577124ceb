package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/internal/util"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

const textContentType = "text/plain; charset=utf-8"

// ReportWriter 报表写入器
type ReportWriter interface {
	Write(ctx context.Context, meta ReportMeta, content string) (StoredObject, error)
}

// ReportMeta 写入元数据
type ReportMeta struct {
	RunID     string
	Device    string
	Mode      string
	Timestamp time.Time
	// Backend local | minio；为空使用 output.backend
	Backend string
	// Path 指定本地文件时直接写入该文件
	Path   string
	Append bool
}

// NewStorageWriter 根据配置创建写入器（委派到本地或 MinIO）
func NewStorageWriter(cfg *config.Config) ReportWriter {
	w := &DelegatingStorageWriter{cfg: cfg, local: &LocalStorageWriter{cfg: cfg}}
	if strings.EqualFold(strings.TrimSpace(cfg.Output.Backend), "minio") {
		w.minio = initMinioWriter(cfg)
	}
	return w
}

// DelegatingStorageWriter 按后端路由写入
type DelegatingStorageWriter struct {
	cfg   *config.Config
	local *LocalStorageWriter
	minio *MinioStorageWriter
}

// Write 写入报表；MinIO 失败时回退到本地并返回提示错误
func (w *DelegatingStorageWriter) Write(ctx context.Context, meta ReportMeta, content string) (StoredObject, error) {
	if meta.Path != "" {
		return w.local.Write(ctx, meta, content)
	}
	backend := strings.ToLower(strings.TrimSpace(meta.Backend))
	if backend == "" {
		backend = strings.ToLower(strings.TrimSpace(w.cfg.Output.Backend))
	}
	if backend != "minio" {
		return w.local.Write(ctx, meta, content)
	}

	if w.minio == nil {
		logger.Warn("MinIO backend selected but client not initialized; falling back to local")
		obj, err := w.local.Write(ctx, meta, content)
		if err != nil {
			return StoredObject{}, fmt.Errorf("minio client not initialized; local fallback failed: %w", err)
		}
		return obj, fmt.Errorf("minio client not initialized; wrote to local instead")
	}
	obj, err := w.minio.Write(ctx, meta, content)
	if err != nil {
		logger.WithError(err).Warn("MinIO write failed; falling back to local")
		local, lerr := w.local.Write(ctx, meta, content)
		if lerr != nil {
			return StoredObject{}, fmt.Errorf("minio write failed: %v; local fallback failed: %w", err, lerr)
		}
		return local, fmt.Errorf("minio write failed: %w; fell back to local successfully", err)
	}
	return obj, nil
}

// LocalStorageWriter 本地文件写入
type LocalStorageWriter struct {
	cfg *config.Config
}

// Write 写入本地文件：指定 Path 时覆盖或追加，否则写入归档目录
func (w *LocalStorageWriter) Write(ctx context.Context, meta ReportMeta, content string) (StoredObject, error) {
	full := meta.Path
	if full == "" {
		baseDir := strings.TrimSpace(w.cfg.Output.BaseDir)
		if baseDir == "" {
			baseDir = "./data/reports"
		}
		full = filepath.Join(baseDir, filepath.FromSlash(archiveKey(w.cfg.Output.Prefix, meta)))
	}

	if w.cfg.Output.MkdirIfMissing {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return StoredObject{}, fmt.Errorf("failed to create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if meta.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(full, flags, 0o644)
	if err != nil {
		return StoredObject{}, fmt.Errorf("failed to open file: %w", err)
	}
	data := []byte(content)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return StoredObject{}, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return StoredObject{}, fmt.Errorf("failed to close file: %w", err)
	}

	return StoredObject{
		URI:         "file://" + full,
		Size:        int64(len(data)),
		Checksum:    checksum(data),
		ContentType: textContentType,
	}, nil
}

// MinioStorageWriter MinIO 对象存储写入
type MinioStorageWriter struct {
	cfg           *config.Config
	client        *minio.Client
	endpoint      string
	bucketEnsured bool
}

// initMinioWriter 初始化 MinIO 写入器，并做一次 bucket 校验
func initMinioWriter(cfg *config.Config) *MinioStorageWriter {
	host := strings.TrimSpace(cfg.Storage.Minio.Host)
	port := cfg.Storage.Minio.Port
	if host == "" || port <= 0 {
		logger.Warn("MinIO configuration incomplete; host/port missing")
		return nil
	}
	endpoint := fmt.Sprintf("%s:%d", host, port)

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   16,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.Storage.Minio.AccessKey, cfg.Storage.Minio.SecretKey, ""),
		Secure:    cfg.Storage.Minio.Secure,
		Transport: transport,
	})
	if err != nil {
		logger.WithError(err).Error("MinIO client initialization failed")
		return nil
	}

	w := &MinioStorageWriter{cfg: cfg, client: client, endpoint: endpoint}
	bucket := strings.TrimSpace(cfg.Storage.Minio.Bucket)
	if bucket == "" {
		logger.Warn("MinIO bucket not configured")
		return w
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.ensureBucket(ctx, bucket, 1); err != nil {
		logger.WithError(err).Warn("MinIO bucket ensure at init failed")
	} else {
		w.bucketEnsured = true
	}
	return w
}

// Write 将报表写入 MinIO
func (w *MinioStorageWriter) Write(ctx context.Context, meta ReportMeta, content string) (StoredObject, error) {
	if w == nil || w.client == nil {
		return StoredObject{}, fmt.Errorf("minio client not initialized")
	}
	bucket := strings.TrimSpace(w.cfg.Storage.Minio.Bucket)
	if bucket == "" {
		return StoredObject{}, fmt.Errorf("minio bucket not configured")
	}
	if !w.bucketEnsured {
		if err := w.ensureBucket(ctx, bucket, 2); err != nil {
			return StoredObject{}, fmt.Errorf("minio ensure bucket failed: %w", err)
		}
		w.bucketEnsured = true
	}

	objectName := archiveKey(w.cfg.Output.Prefix, meta)
	data := []byte(content)

	var lastErr error
	for _, d := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second} {
		attemptCtx, cancel := attemptContext(ctx, d)
		_, err := w.client.PutObject(attemptCtx, bucket, objectName, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: textContentType})
		cancel()
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr != nil {
		return StoredObject{}, fmt.Errorf("minio put object failed after retries: %w", lastErr)
	}

	return StoredObject{
		URI:         "minio://" + path.Join(bucket, objectName),
		Size:        int64(len(data)),
		Checksum:    checksum(data),
		ContentType: textContentType,
	}, nil
}

// ensureBucket 校验并创建 bucket，支持有限重试
func (w *MinioStorageWriter) ensureBucket(parent context.Context, bucket string, retries int) error {
	var lastErr error
	for i := 0; i <= retries; i++ {
		ctx, cancel := attemptContext(parent, 10*time.Second)
		exists, err := w.client.BucketExists(ctx, bucket)
		if err == nil && !exists {
			err = w.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		}
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}

// attemptContext 构造限时上下文，尊重父上下文的剩余截止时间
func attemptContext(parent context.Context, prefer time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := parent.Deadline(); ok {
		remain := time.Until(deadline)
		if remain > time.Second && prefer < remain {
			return context.WithTimeout(parent, prefer)
		}
		if remain > time.Second {
			return context.WithTimeout(parent, remain-time.Second)
		}
		return context.WithTimeout(parent, time.Second)
	}
	return context.WithTimeout(parent, prefer)
}

// archiveKey 归档路径：prefix/device/date_time/run/mode.txt（POSIX 风格）
func archiveKey(prefix string, meta ReportMeta) string {
	parts := []string{}
	if p := strings.TrimSpace(prefix); p != "" {
		parts = append(parts, p)
	}
	device := strings.TrimSpace(meta.Device)
	if device == "" {
		device = "local"
	}
	parts = append(parts, util.Slug(device))

	ts := meta.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	parts = append(parts, ts.Format("20060102_150405"))
	if id := strings.TrimSpace(meta.RunID); id != "" {
		parts = append(parts, id)
	}
	parts = append(parts, util.Slug(meta.Mode)+".txt")
	return path.Join(parts...)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
