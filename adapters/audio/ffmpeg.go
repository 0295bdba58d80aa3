package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/domain"
	"github.com/satriahrh/jarvis/server/domain/repositories"
)

const defaultFFmpegPath = "ffmpeg"

// FFmpegConfig holds configuration for the ffmpeg decoder
type FFmpegConfig struct {
	BinaryPath string // Optional: ffmpeg executable (default: "ffmpeg" from PATH)
	TempDir    string // Optional: directory for per-call input files (default: os.TempDir())
}

// FFmpegDecoder implements AudioDecoder by shelling out to ffmpeg. Every call
// decodes an independent container, so it is safe for concurrent use.
type FFmpegDecoder struct {
	binaryPath string
	tempDir    string
	logger     *zap.Logger
}

var _ repositories.AudioDecoder = (*FFmpegDecoder)(nil)

// NewFFmpegDecoder creates a decoder, resolving the ffmpeg binary up front
func NewFFmpegDecoder(config FFmpegConfig, logger *zap.Logger) (*FFmpegDecoder, error) {
	binaryPath := config.BinaryPath
	if binaryPath == "" {
		binaryPath = defaultFFmpegPath
	}

	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg binary %q not found: %w", binaryPath, err)
	}

	return &FFmpegDecoder{
		binaryPath: resolved,
		tempDir:    config.TempDir,
		logger:     logger,
	}, nil
}

// Decode converts a compressed blob (webm/ogg/mp4/wav...) into 16 kHz mono
// samples normalized to [-1, 1].
func (d *FFmpegDecoder) Decode(ctx context.Context, compressed []byte) ([]float32, error) {
	if len(compressed) == 0 {
		return nil, &domain.DecodeError{Err: errors.New("empty audio input")}
	}

	input, err := d.writeTempInput(compressed)
	if err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	defer func() {
		if err := os.Remove(input); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("Failed to remove decoder temp file",
				zap.String("path", input),
				zap.Error(err))
		}
	}()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.binaryPath,
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(repositories.SampleRate),
		"pipe:1",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &domain.DecodeError{
			Diagnostic: strings.TrimSpace(stderr.String()),
			Err:        err,
		}
	}

	samples := PCM16ToFloat32(stdout.Bytes())

	d.logger.Debug("Decoded audio",
		zap.Int("inputBytes", len(compressed)),
		zap.Int("samples", len(samples)))

	return samples, nil
}

func (d *FFmpegDecoder) writeTempInput(data []byte) (string, error) {
	file, err := os.CreateTemp(d.tempDir, "chunk-*.webm")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return file.Name(), nil
}
