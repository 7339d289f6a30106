package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"time"

	"media-translator/internal/logger"
)

const installStepTimeout = 45 * time.Minute

var errNoPackageManager = errors.New("no supported package manager found")

// packageManager is one way of installing a tool: a binary that must be on
// PATH and the commands to run with it, in order.
type packageManager struct {
	name    string
	elevate bool
	steps   [][]string
}

// ffmpegPackageManagers lists the managers tried on goos, most common first.
func ffmpegPackageManagers(goos string) []packageManager {
	switch goos {
	case "windows":
		return []packageManager{
			{name: "winget", steps: [][]string{{"winget", "install", "--id", "Gyan.FFmpeg", "--exact", "--accept-source-agreements", "--accept-package-agreements"}}},
			{name: "choco", steps: [][]string{{"choco", "install", "ffmpeg", "-y"}}},
			{name: "scoop", steps: [][]string{{"scoop", "install", "ffmpeg"}}},
		}
	case "darwin":
		return []packageManager{
			{name: "brew", steps: [][]string{{"brew", "install", "ffmpeg"}}},
		}
	}
	return []packageManager{
		{name: "apt-get", elevate: true, steps: [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", "ffmpeg"}}},
		{name: "dnf", elevate: true, steps: [][]string{{"dnf", "install", "-y", "ffmpeg"}}},
		{name: "pacman", elevate: true, steps: [][]string{{"pacman", "-Sy", "--noconfirm", "ffmpeg"}}},
		{name: "zypper", elevate: true, steps: [][]string{{"zypper", "install", "-y", "ffmpeg"}}},
		{name: "brew", steps: [][]string{{"brew", "install", "ffmpeg"}}},
	}
}

// toolInstaller installs the external tools the pipeline shells out to.
type toolInstaller struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
	timeout  time.Duration
	log      *logger.Logger
}

func newToolInstaller(log *logger.Logger) *toolInstaller {
	return &toolInstaller{
		goos:     goruntime.GOOS,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		timeout: installStepTimeout,
		log:     log.Named("installer"),
	}
}

// InstallFFmpeg installs ffmpeg with the first manager that works.
func (in *toolInstaller) InstallFFmpeg(ctx context.Context) error {
	return in.Install(ctx, "ffmpeg", ffmpegPackageManagers(in.goos))
}

// Install walks managers until one finishes and tool resolves on PATH.
// Managers that are not installed are skipped.
func (in *toolInstaller) Install(ctx context.Context, tool string, managers []packageManager) error {
	var failures []string
	for _, pm := range managers {
		if !in.has(pm.name) {
			continue
		}
		in.log.Info("installing tool", logger.String("tool", tool), logger.String("manager", pm.name))

		if err := in.runSteps(ctx, pm); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			in.log.Warn("install attempt failed", logger.String("manager", pm.name), logger.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %v", pm.name, err))
			continue
		}
		if _, err := in.lookPath(tool); err != nil {
			failures = append(failures, fmt.Sprintf("%s: finished but %s is not on PATH", pm.name, tool))
			continue
		}
		return nil
	}

	if len(failures) == 0 {
		return fmt.Errorf("install %s: %w on %s", tool, errNoPackageManager, in.goos)
	}
	return fmt.Errorf("install %s: %s", tool, strings.Join(failures, "; "))
}

func (in *toolInstaller) runSteps(ctx context.Context, pm packageManager) error {
	for _, step := range pm.steps {
		if err := in.runStep(ctx, step, pm.elevate); err != nil {
			return err
		}
	}
	return nil
}

// runStep tries step as is, then through pkexec and non-interactive sudo
// when the manager needs root on Linux.
func (in *toolInstaller) runStep(ctx context.Context, step []string, elevate bool) error {
	var errs []error
	for _, argv := range in.elevations(step, elevate) {
		stepCtx, cancel := context.WithTimeout(ctx, in.timeout)
		out, err := in.run(stepCtx, argv[0], argv[1:]...)
		timedOut := errors.Is(stepCtx.Err(), context.DeadlineExceeded)
		cancel()
		if err == nil {
			return nil
		}

		cmd := strings.Join(argv, " ")
		switch {
		case timedOut:
			errs = append(errs, fmt.Errorf("%s timed out after %s", cmd, in.timeout))
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			errs = append(errs, fmt.Errorf("%s: %w%s", cmd, err, outputTail(out)))
		}
	}
	return errors.Join(errs...)
}

func (in *toolInstaller) elevations(step []string, elevate bool) [][]string {
	argvs := [][]string{step}
	if !elevate || in.goos != "linux" {
		return argvs
	}
	for _, prefix := range [][]string{{"pkexec"}, {"sudo", "-n"}} {
		if in.has(prefix[0]) {
			argvs = append(argvs, append(append([]string{}, prefix...), step...))
		}
	}
	return argvs
}

func (in *toolInstaller) has(name string) bool {
	_, err := in.lookPath(name)
	return err == nil
}

// outputTail keeps the last line of command output for error messages.
func outputTail(out []byte) string {
	text := strings.TrimSpace(string(out))
	if text == "" {
		return ""
	}
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	if len(text) > 300 {
		text = text[:300] + "..."
	}
	return " (" + text + ")"
}

// ensureLocalBinOnPATH puts <appDir>/bin first on PATH so tools dropped
// there win over system copies.
func ensureLocalBinOnPATH(appDir string) error {
	binDir := localBinDir(appDir)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}

	path := os.Getenv("PATH")
	for _, entry := range filepath.SplitList(path) {
		if filepath.Clean(entry) == filepath.Clean(binDir) {
			return nil
		}
	}
	if path != "" {
		binDir += string(os.PathListSeparator) + path
	}
	return os.Setenv("PATH", binDir)
}

func localBinDir(appDir string) string {
	return filepath.Join(appDir, "bin")
}

func localFontsDir(appDir string) string {
	return filepath.Join(appDir, "fonts")
}
