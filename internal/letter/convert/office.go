package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/smallbiznis/peoplehub/internal/observability/metrics"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"go.uber.org/zap"
)

const officeConverterName = "soffice"

// Office shells out to a headless LibreOffice.
type Office struct {
	binary  string
	timeout time.Duration
	log     *zap.Logger
}

func NewOffice(binary string, timeout time.Duration, log *zap.Logger) *Office {
	if strings.TrimSpace(binary) == "" {
		binary = officeConverterName
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Office{binary: binary, timeout: timeout, log: log.Named("letter.convert.office")}
}

func (c *Office) Convert(ctx context.Context, inputPath, outputDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Each run gets its own profile; concurrent soffice processes sharing one
	// profile block on its lock file.
	profile, err := os.MkdirTemp("", "soffice-profile-*")
	if err != nil {
		return "", apperr.ConversionFailure("create converter profile", err)
	}
	defer os.RemoveAll(profile)

	cmd := exec.CommandContext(ctx, c.binary,
		"-env:UserInstallation=file://"+filepath.ToSlash(profile),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outputDir,
		inputPath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// soffice forks soffice.bin, which can outlive the killed parent.
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err = cmd.Run()
	metrics.Workflow().ObserveConversion(officeConverterName, time.Since(start))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", apperr.ConversionTimeout(c.timeout, ctx.Err())
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", apperr.ConversionFailure(msg, err)
	}

	out := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))+".pdf")
	if _, err := os.Stat(out); err != nil {
		c.log.Warn("converter exited cleanly without output",
			zap.String("input", inputPath),
			zap.String("stdout", strings.TrimSpace(stdout.String())),
		)
		return "", apperr.ConversionFailure(fmt.Sprintf("no pdf produced for %s", filepath.Base(inputPath)), err)
	}
	return out, nil
}
