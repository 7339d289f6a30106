package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"media-translator/internal/logger"
)

// fakeShell records commands and fails the ones listed in fail.
type fakeShell struct {
	onPath map[string]bool
	fail   map[string]string
	ran    []string
}

func (f *fakeShell) lookPath(name string) (string, error) {
	if f.onPath[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("not found")
}

func (f *fakeShell) run(_ context.Context, name string, args ...string) ([]byte, error) {
	cmd := strings.Join(append([]string{name}, args...), " ")
	f.ran = append(f.ran, cmd)
	if out, ok := f.fail[cmd]; ok {
		return []byte(out), errors.New("exit status 1")
	}
	if strings.Contains(cmd, "install") {
		f.onPath["ffmpeg"] = true
	}
	return nil, nil
}

func newFakeInstaller(goos string, shell *fakeShell) *toolInstaller {
	in := newToolInstaller(logger.NewNop())
	in.goos = goos
	in.lookPath = shell.lookPath
	in.run = shell.run
	in.timeout = time.Minute
	return in
}

// TestToolInstallerFallsBackToElevation checks sudo is tried after a plain run fails.
func TestToolInstallerFallsBackToElevation(t *testing.T) {
	shell := &fakeShell{
		onPath: map[string]bool{"apt-get": true, "sudo": true},
		fail: map[string]string{
			"apt-get update":            "E: Could not open lock file\nPermission denied",
			"apt-get install -y ffmpeg": "Permission denied",
		},
	}
	if err := newFakeInstaller("linux", shell).InstallFFmpeg(context.Background()); err != nil {
		t.Fatalf("InstallFFmpeg() error = %v", err)
	}
	want := []string{
		"apt-get update",
		"sudo -n apt-get update",
		"apt-get install -y ffmpeg",
		"sudo -n apt-get install -y ffmpeg",
	}
	if !reflect.DeepEqual(shell.ran, want) {
		t.Fatalf("ran = %v, want %v", shell.ran, want)
	}
}

// TestToolInstallerTriesNextManager checks a failing manager does not stop the search.
func TestToolInstallerTriesNextManager(t *testing.T) {
	shell := &fakeShell{
		onPath: map[string]bool{"winget": true, "scoop": true},
		fail: map[string]string{
			"winget install --id Gyan.FFmpeg --exact --accept-source-agreements --accept-package-agreements": "No package found",
		},
	}
	if err := newFakeInstaller("windows", shell).InstallFFmpeg(context.Background()); err != nil {
		t.Fatalf("InstallFFmpeg() error = %v", err)
	}
	if last := shell.ran[len(shell.ran)-1]; last != "scoop install ffmpeg" {
		t.Fatalf("last command = %q", last)
	}
}

// TestToolInstallerReportsFailures checks the error names managers and output.
func TestToolInstallerReportsFailures(t *testing.T) {
	shell := &fakeShell{
		onPath: map[string]bool{"brew": true},
		fail:   map[string]string{"brew install ffmpeg": "Error: No available formula"},
	}
	err := newFakeInstaller("darwin", shell).InstallFFmpeg(context.Background())
	if err == nil || !strings.Contains(err.Error(), "brew") || !strings.Contains(err.Error(), "No available formula") {
		t.Fatalf("error = %v", err)
	}

	none := &fakeShell{onPath: map[string]bool{}}
	if err := newFakeInstaller("linux", none).InstallFFmpeg(context.Background()); !errors.Is(err, errNoPackageManager) {
		t.Fatalf("error = %v, want %v", err, errNoPackageManager)
	}
	if len(none.ran) != 0 {
		t.Fatalf("ran = %v, want nothing", none.ran)
	}
}

// TestFFmpegPackageManagersPerOS checks each platform installs ffmpeg.
func TestFFmpegPackageManagersPerOS(t *testing.T) {
	for _, goos := range []string{"windows", "darwin", "linux", "freebsd"} {
		managers := ffmpegPackageManagers(goos)
		if len(managers) == 0 {
			t.Fatalf("%s: no package managers", goos)
		}
		for _, pm := range managers {
			last := strings.Join(pm.steps[len(pm.steps)-1], " ")
			if !strings.Contains(last, "ffmpeg") && !strings.Contains(last, "FFmpeg") {
				t.Fatalf("%s/%s does not install ffmpeg: %s", goos, pm.name, last)
			}
		}
	}
}

// TestEnsureLocalBinOnPATH prepends the tool directory once.
func TestEnsureLocalBinOnPATH(t *testing.T) {
	appDir := t.TempDir()
	t.Setenv("PATH", "/usr/bin")

	if err := ensureLocalBinOnPATH(appDir); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := ensureLocalBinOnPATH(appDir); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	entries := filepath.SplitList(os.Getenv("PATH"))
	if len(entries) != 2 || entries[0] != localBinDir(appDir) {
		t.Fatalf("PATH entries = %v", entries)
	}
}
