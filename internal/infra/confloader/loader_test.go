package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		Addr           string `koanf:"addr"`
		MaxRequestLine int    `koanf:"max_request_line"`
		StrictSNI      bool   `koanf:"strict_sni"`
	} `koanf:"server"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
	Sites []struct {
		Host string `koanf:"host"`
	} `koanf:"sites"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "geminid.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

const testYAML = `
server:
  addr: "0.0.0.0:1965"
  max_request_line: 2048
log:
  level: debug
sites:
  - host: a.example
  - host: b.example
`

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/etc/geminid/geminid.yaml"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.FilePath() != "/etc/geminid/geminid.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(writeConfig(t, testYAML)); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := l.GetString("server.addr"); got != "0.0.0.0:1965" {
		t.Errorf("server.addr = %q", got)
	}
	if got := l.GetInt("server.max_request_line"); got != 2048 {
		t.Errorf("server.max_request_line = %d", got)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/geminid.yaml"); err == nil {
		t.Error("LoadFile() expected error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"GEMINID_SERVER_ADDR", "server.addr"},
		{"GEMINID_SERVER_MAX_REQUEST_LINE", "server.max_request_line"},
		{"GEMINID_TLS_KEY_LOG_FILE", "tls.key_log_file"},
		{"GEMINID_LOG_LEVEL", "log.level"},
		{"GEMINID_DEBUG", "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnvKey(DefaultEnvPrefix, tt.name); got != tt.want {
				t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("GEMINID_SERVER_ADDR", "127.0.0.1:1966")
	t.Setenv("GEMINID_SERVER_STRICT_SNI", "true")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if got := l.GetString("server.addr"); got != "127.0.0.1:1966" {
		t.Errorf("server.addr = %q", got)
	}
	if !l.GetBool("server.strict_sni") {
		t.Error("server.strict_sni = false, want true")
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_ADDR", "127.0.0.1:9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.GetString("server.addr"); got != "127.0.0.1:9090" {
		t.Errorf("server.addr = %q", got)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	err := l.LoadMap(map[string]any{
		"server": map[string]any{"addr": "localhost:1965"},
	})
	if err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.GetString("server.addr"); got != "localhost:1965" {
		t.Errorf("server.addr = %q", got)
	}
}

func TestMapProvider_ReadBytes(t *testing.T) {
	if _, err := (mapProvider{}).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, testYAML)
	t.Setenv("GEMINID_SERVER_ADDR", "from-env:1965")

	var cfg testConfig
	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "from-env:1965" {
		t.Errorf("Server.Addr = %q, want env value", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want file value", cfg.Log.Level)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")

	var cfg testConfig
	cfg.Server.Addr = "0.0.0.0:1965"

	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:1965" {
		t.Errorf("Server.Addr = %q, default lost", cfg.Server.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoader_Unmarshal_Sites(t *testing.T) {
	var cfg testConfig
	l := NewLoader(WithConfigFile(writeConfig(t, testYAML)))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Sites) != 2 {
		t.Fatalf("len(Sites) = %d, want 2", len(cfg.Sites))
	}
	if cfg.Sites[0].Host != "a.example" || cfg.Sites[1].Host != "b.example" {
		t.Errorf("Sites = %+v", cfg.Sites)
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()
	if l.IsLoaded() {
		t.Error("IsLoaded() = true before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load()")
	}
}

func TestLoader_AllAndKeys(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{"log": map[string]any{"level": "info"}})

	if _, ok := l.All()["log.level"]; !ok {
		t.Errorf("All() = %v, missing log.level", l.All())
	}
	if keys := l.Keys(); len(keys) != 1 || keys[0] != "log.level" {
		t.Errorf("Keys() = %v", keys)
	}
	if l.Get("log.level") != "info" {
		t.Errorf("Get(log.level) = %v", l.Get("log.level"))
	}
}
