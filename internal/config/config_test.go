package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/caffeineduck/runpad/language"
	"github.com/caffeineduck/runpad/remote"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runpad.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote.URL != remote.DefaultURL {
		t.Errorf("remote url = %q", cfg.Remote.URL)
	}
	if cfg.Server.Addr != DefaultServerAddr || cfg.RunTimeout != DefaultRunTimeout {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !strings.HasSuffix(cfg.Interpreters.Python.Module, "python.wasm") {
		t.Errorf("python module = %q", cfg.Interpreters.Python.Module)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
remote:
  url: http://localhost:2000/api/v2/execute
  timeout: 5s
languages:
  java:
    language: java
    version: 17.0.1
interpreters:
  python:
    module: /opt/python.wasm
    libDir: /opt/lib
cacheDir: /tmp/runpad
memoryLimitPages: 4096
server:
  addr: ":9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Remote.URL != "http://localhost:2000/api/v2/execute" || cfg.Remote.Timeout != 5*time.Second {
		t.Errorf("remote = %+v", cfg.Remote)
	}
	if cfg.Remote.MaxBodySize != remote.DefaultMaxBodySize {
		t.Errorf("max body size default not applied: %d", cfg.Remote.MaxBodySize)
	}
	want := map[string]language.RemoteTarget{"java": {Language: "java", Version: "17.0.1"}}
	if diff := cmp.Diff(want, cfg.Languages); diff != "" {
		t.Errorf("languages mismatch (-want +got):\n%s", diff)
	}
	if cfg.Interpreters.Python.Module != "/opt/python.wasm" || cfg.Interpreters.Python.LibDir != "/opt/lib" {
		t.Errorf("python = %+v", cfg.Interpreters.Python)
	}
	if cfg.CacheDir != "/tmp/runpad" || cfg.MemoryLimitPages != 4096 || cfg.Server.Addr != ":9000" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadModuleDefaultFollowsCacheDir(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cacheDir: /var/cache/rp\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interpreters.Python.Module != filepath.Join("/var/cache/rp", "python.wasm") {
		t.Errorf("python module = %q", cfg.Interpreters.Python.Module)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read config file failed") {
		t.Errorf("expected read error, got %v", err)
	}
	if _, err := Load(writeConfig(t, "remote: [")); err == nil || !strings.Contains(err.Error(), "parse config file failed") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestRemoteConfig(t *testing.T) {
	cfg := Default()
	rc := cfg.RemoteConfig()
	if rc.URL != cfg.Remote.URL || rc.RequestTimeout != cfg.Remote.Timeout || rc.MaxBodySize != cfg.Remote.MaxBodySize {
		t.Errorf("RemoteConfig = %+v", rc)
	}
}
