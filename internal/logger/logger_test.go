package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	saved, savedSugar := Log, Sugar
	t.Cleanup(func() { Log, Sugar = saved, savedSugar })
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return string(content)
}

func TestLogRotation(t *testing.T) {
	restore(t)
	dir := t.TempDir()
	logFile := filepath.Join(dir, "meshconv.log")

	cfg := FileConfig{Path: logFile, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1}
	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	longName := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infow("mesh converted", "mesh", longName, "index", i)
	}
	Sync()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	rotated := 0
	for _, f := range files {
		if f.Name() != "meshconv.log" && strings.HasPrefix(f.Name(), "meshconv-20") {
			rotated++
		}
	}
	if rotated == 0 {
		t.Errorf("no rotated files in %v", files)
	}
}

func TestLogLevels(t *testing.T) {
	restore(t)
	dir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
		{"bogus", []string{"INFO"}, []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(dir, tt.level+".log")
			if err := InitWithFileConfig(tt.level, FileConfig{Path: logFile, MaxSizeMB: 10}, false); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("skin cluster")
			Info("mesh converted")
			Warn("canonical key collisions")
			Error("conversion failed")

			got := readLog(t, logFile)
			for _, exp := range tt.expected {
				if !strings.Contains(got, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(got, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestDefaultFileConfig(t *testing.T) {
	got := DefaultFileConfig("meshconv.log")
	want := FileConfig{Path: "meshconv.log", MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 14, Compress: true}
	if got != want {
		t.Errorf("DefaultFileConfig() = %+v, want %+v", got, want)
	}
}

func TestConsoleGoesToStderr(t *testing.T) {
	restore(t)
	errFile, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	saved := os.Stderr
	os.Stderr = errFile
	t.Cleanup(func() { os.Stderr = saved })

	if err := Init("info", ""); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	Info("model written")

	if got := readLog(t, errFile.Name()); !strings.Contains(got, "model written") {
		t.Errorf("console output missing from stderr: %q", got)
	}
}

func TestForMesh(t *testing.T) {
	restore(t)
	logFile := filepath.Join(t.TempDir(), "mesh.log")
	if err := InitWithFileConfig("info", FileConfig{Path: logFile, MaxSizeMB: 1}, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	ForMesh("Body").Info("welded")

	if got := readLog(t, logFile); !strings.Contains(got, `"mesh": "Body"`) {
		t.Errorf("expected mesh field in %q", got)
	}
}

func TestSyncNilLogger(t *testing.T) {
	restore(t)
	Log = nil
	Sync()
}
