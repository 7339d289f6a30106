package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// FFmpeg converts media into mono 16 kHz PCM WAV files.
type FFmpeg struct {
	path   string
	runner commandRunner
	stat   func(name string) (os.FileInfo, error)
}

// NewFFmpeg returns a converter that runs the binary at path.
func NewFFmpeg(path string) *FFmpeg {
	if strings.TrimSpace(path) == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, runner: &execRunner{}, stat: os.Stat}
}

// Path returns the configured binary.
func (f *FFmpeg) Path() string {
	return f.path
}

// ExtractAudio demuxes the audio track of a video into outPath, overwriting it.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, outPath string) (CommandLog, error) {
	return f.convert(ctx, videoPath, outPath)
}

// Normalize re-encodes any audio file into the PCM layout the recognizers accept.
func (f *FFmpeg) Normalize(ctx context.Context, audioPath, outPath string) (CommandLog, error) {
	return f.convert(ctx, audioPath, outPath)
}

func (f *FFmpeg) convert(ctx context.Context, inputPath, outPath string) (CommandLog, error) {
	args := buildFFmpegArgs(inputPath, outPath)
	result, runErr := f.runner.Run(ctx, f.path, args...)
	log := CommandLog{
		Command:  f.path,
		Args:     args,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return log, ctx.Err()
		}
		return log, fmt.Errorf("ffmpeg exited with code %d: %s", result.ExitCode, lastLine(result.Stderr))
	}

	if _, err := f.stat(outPath); err != nil {
		return log, fmt.Errorf("ffmpeg completed but output file is missing: %w", err)
	}
	return log, nil
}

// buildFFmpegArgs builds CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// lastLine keeps the final non-empty stderr line, where ffmpeg reports the cause.
func lastLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}

// NewFFmpegForTests constructs a converter with injectable dependencies.
func NewFFmpegForTests(path string, runner commandRunner, stat func(name string) (os.FileInfo, error)) *FFmpeg {
	return &FFmpeg{path: path, runner: runner, stat: stat}
}
