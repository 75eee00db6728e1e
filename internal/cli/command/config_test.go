package command

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/geminid/internal/infra/tlscert"
	"github.com/yndnr/geminid/internal/server/config"
)

func TestConfigCommand(t *testing.T) {
	cmd := ConfigCommand()
	subNames := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subNames[sub.Name] = true
	}
	for _, name := range []string{"init", "check", "show"} {
		if !subNames[name] {
			t.Errorf("missing subcommand: %s", name)
		}
	}
}

func TestConfigInit_Stdout(t *testing.T) {
	res := mustRun(t, "", "config", "init")

	if !strings.HasPrefix(res.stdout, configHeader) {
		t.Errorf("output does not start with the header comment:\n%s", res.stdout)
	}
	for _, want := range []string{"addr: 0.0.0.0:1965", "host: localhost", "type: flat_dir", "handshake_timeout: 0s"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestConfigInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geminid.yaml")

	mustRun(t, "", "config", "init", path)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load() of generated file error = %v", err)
	}
	example := config.Example()
	if len(cfg.Sites) != 1 || cfg.Sites[0] != example.Sites[0] {
		t.Errorf("Sites = %+v, want %+v", cfg.Sites, example.Sites)
	}
	if cfg.Server != example.Server || cfg.Log != example.Log {
		t.Errorf("loaded config differs from example: %+v", cfg)
	}

	res := runApp(t, "", "config", "init", path)
	if res.err == nil || !strings.Contains(res.err.Error(), "already exists") {
		t.Errorf("second init err = %v, want already exists", res.err)
	}

	mustRun(t, "", "config", "init", "--force", path)
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geminid.yaml")
	mustRun(t, "", "config", "init", path)
	t.Setenv("GEMINID_LOG_LEVEL", "debug")

	res := mustRun(t, "", "config", "show", path)
	if !strings.Contains(res.stdout, "level: debug") {
		t.Errorf("show did not apply env override:\n%s", res.stdout)
	}

	res = mustRun(t, "", "-o", "json", "--config", path, "config", "show")
	var cfg config.ServerConfig
	if err := json.Unmarshal([]byte(res.stdout), &cfg); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, res.stdout)
	}
	if cfg.Log.Level != "debug" || len(cfg.Sites) != 1 {
		t.Errorf("json config = %+v", cfg)
	}
}

// writeCheckConfig writes certificates, a content directory and a config
// with one flat_dir and one kv site, returning the config path.
func writeCheckConfig(t *testing.T, flatDir string) string {
	t.Helper()
	dir := t.TempDir()

	for _, host := range []string{"a.example", "b.example"} {
		err := tlscert.WriteSelfSigned(
			filepath.Join(dir, host+".crt"), filepath.Join(dir, host+".key"), time.Hour, host)
		if err != nil {
			t.Fatalf("WriteSelfSigned() error = %v", err)
		}
	}

	content := fmt.Sprintf(`sites:
  - host: a.example
    cert_file: %[1]s/a.example.crt
    key_file: %[1]s/a.example.key
    source:
      type: flat_dir
      directory: %[2]s
  - host: b.example
    cert_file: %[1]s/a.example.crt
    key_file: %[1]s/a.example.key
    source:
      type: kv
      db_dir: %[1]s/kv
`, dir, flatDir)

	path := filepath.Join(dir, "geminid.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestConfigCheck(t *testing.T) {
	flatDir := t.TempDir()
	path := writeCheckConfig(t, flatDir)

	res := mustRun(t, "", "-o", "json", "config", "check", path)

	var checks []siteCheck
	if err := json.Unmarshal([]byte(res.stdout), &checks); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, res.stdout)
	}
	if len(checks) != 2 {
		t.Fatalf("got %d checks, want 2", len(checks))
	}

	a, b := checks[0], checks[1]
	if a.Host != "a.example" || a.Source != config.SourceFlatDir || a.Location != flatDir || !a.CertMatches {
		t.Errorf("a.example check = %+v", a)
	}
	// b.example reuses a.example's certificate.
	if b.Host != "b.example" || b.Source != config.SourceKV || b.CertMatches {
		t.Errorf("b.example check = %+v", b)
	}
	if !strings.HasSuffix(b.Location, "/kv") {
		t.Errorf("b.example location = %q", b.Location)
	}
	if time.Until(a.CertExpires) > time.Hour+time.Minute || time.Until(a.CertExpires) <= 0 {
		t.Errorf("CertExpires = %v", a.CertExpires)
	}

	table := mustRun(t, "", "config", "check", path)
	if !strings.HasPrefix(table.stdout, "HOST") {
		t.Errorf("table output = %q", table.stdout)
	}
}

func TestConfigCheck_Errors(t *testing.T) {
	missingDir := filepath.Join(t.TempDir(), "missing")

	badCert := filepath.Join(t.TempDir(), "geminid.yaml")
	content := `sites:
  - host: a.example
    cert_file: /nonexistent/a.crt
    key_file: /nonexistent/a.key
    source:
      type: flat_dir
      directory: /tmp
`
	if err := os.WriteFile(badCert, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	invalid := filepath.Join(t.TempDir(), "geminid.yaml")
	if err := os.WriteFile(invalid, []byte("log:\n  format: xml\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing content dir", writeCheckConfig(t, missingDir), "flat_dir"},
		{"missing certificate", badCert, "site a.example"},
		{"invalid config", invalid, "invalid configuration"},
		{"missing file", filepath.Join(t.TempDir(), "nope.yaml"), "load config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runApp(t, "", "config", "check", tt.path)
			if res.err == nil || !strings.Contains(res.err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", res.err, tt.wantErr)
			}
		})
	}
}

func TestConfigCheck_NoSites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geminid.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	res := mustRun(t, "", "config", "check", path)
	if !strings.Contains(res.stderr, "no sites configured") {
		t.Errorf("stderr = %q, want no-sites warning", res.stderr)
	}
}
