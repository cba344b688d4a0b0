package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// readEntries decodes every JSON line of the files in dir whose name starts
// with prefix.
func readEntries(t *testing.T, dir, prefix string) []map[string]any {
	t.Helper()
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}

	var entries []map[string]any
	for _, f := range files {
		if !strings.HasPrefix(f.Name(), prefix) {
			continue
		}
		fh, err := os.Open(filepath.Join(dir, f.Name()))
		if err != nil {
			t.Fatalf("opening %s: %v", f.Name(), err)
		}
		sc := bufio.NewScanner(fh)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			var e map[string]any
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				fh.Close()
				t.Fatalf("%s: line is not JSON: %v: %q", f.Name(), err, sc.Text())
			}
			entries = append(entries, e)
		}
		fh.Close()
	}
	return entries
}

func initFile(t *testing.T, level string, cfg FileConfig) {
	t.Helper()
	if err := InitWithFileConfig(level, cfg, false); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	t.Cleanup(func() { Log = zap.NewNop(); Sugar = Log.Sugar() })
}

func TestNamedComponents(t *testing.T) {
	dir := t.TempDir()
	initFile(t, "info", FileConfig{Path: filepath.Join(dir, "bimview.log"), MaxSizeMB: 1})

	Named("builder").Info("build finished", zap.Int("batches", 12))
	Named("builder").Named("loader").Warn("discarding in-flight build")
	Info("viewer closed")
	Sync()

	entries := readEntries(t, dir, "bimview")
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(entries), entries)
	}

	tests := []struct {
		logger string
		level  string
		msg    string
	}{
		{"builder", "INFO", "build finished"},
		{"builder.loader", "WARN", "discarding in-flight build"},
		{"", "INFO", "viewer closed"},
	}
	for i, tt := range tests {
		e := entries[i]
		name, _ := e["logger"].(string)
		if name != tt.logger {
			t.Errorf("entry %d: logger %q, want %q", i, name, tt.logger)
		}
		if e["level"] != tt.level {
			t.Errorf("entry %d: level %v, want %s", i, e["level"], tt.level)
		}
		if e["msg"] != tt.msg {
			t.Errorf("entry %d: msg %v, want %s", i, e["msg"], tt.msg)
		}
	}
	if entries[0]["batches"] != float64(12) {
		t.Errorf("expected batches field, got %v", entries[0]["batches"])
	}
}

func TestFileEncoding(t *testing.T) {
	dir := t.TempDir()
	initFile(t, "debug", FileConfig{Path: filepath.Join(dir, "build.log"), MaxSizeMB: 1})

	Named("builder").Debug("chunk built", zap.Duration("elapsed", 1500*time.Millisecond))
	Sync()

	entries := readEntries(t, dir, "build")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]

	if e["elapsed"] != float64(1500) {
		t.Errorf("durations are milliseconds in files, got %v", e["elapsed"])
	}
	ts, _ := e["time"].(string)
	if _, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts); err != nil {
		t.Errorf("time %q is not ISO8601: %v", ts, err)
	}
	caller, _ := e["caller"].(string)
	if !strings.HasPrefix(caller, "logger/logger_test.go:") {
		t.Errorf("expected short caller, got %q", caller)
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"error", []string{"ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"verbose", []string{"INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			dir := t.TempDir()
			initFile(t, tt.level, FileConfig{Path: filepath.Join(dir, "levels.log"), MaxSizeMB: 1})

			Debug("d")
			Info("i")
			Warn("w")
			Error("e")
			Sync()

			var got []string
			for _, e := range readEntries(t, dir, "levels") {
				got = append(got, e["level"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("levels %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRotatedFilesStayJSON(t *testing.T) {
	dir := t.TempDir()
	initFile(t, "info", FileConfig{Path: filepath.Join(dir, "rot.log"), MaxSizeMB: 1, MaxBackups: 3})

	// ~300 byte entries; 5000 of them exceed the 1MB limit
	name := strings.Repeat("w", 200)
	const n = 5000
	for i := 0; i < n; i++ {
		Named("builder").Info("group dropped", zap.Int("group", i), zap.String("name", name))
	}
	Sync()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	rotated := 0
	for _, f := range files {
		if f.Name() != "rot.log" && strings.HasPrefix(f.Name(), "rot-") {
			rotated++
		}
	}
	if rotated == 0 {
		t.Fatalf("expected a rotated file, got %d files", len(files))
	}

	entries := readEntries(t, dir, "rot")
	if len(entries) != n {
		t.Fatalf("expected %d entries across files, got %d", n, len(entries))
	}
	for _, e := range entries {
		if e["logger"] != "builder" {
			t.Fatalf("entry lost component name: %v", e)
		}
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("bimview.log")
	want := FileConfig{Path: "bimview.log", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if cfg != want {
		t.Errorf("DefaultFileConfig = %+v, want %+v", cfg, want)
	}
}
