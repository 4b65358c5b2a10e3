package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"ddpsdk/internal/ddp"
)

const (
	testKey     = "cli-key"
	testDoc     = `{"disc":{"upc":"0123456789012"},"tracks":[{"number":1,"title":"Overture","performer":"Quartet","isrc":"gbxyz2400001","duration":"04:01"},{"number":2,"title":"Finale"}]}`
	engineShell = `#!/bin/sh
mode="$1"; shift
input="$1"; shift
output=""
if [ "$mode" = "process" ]; then output="$1"; shift; fi
key=""; dest=""
while [ $# -gt 0 ]; do
  case "$1" in
    --license-key) key="$2"; shift 2 ;;
    --output) dest="$2"; shift 2 ;;
    *) shift ;;
  esac
done
if [ "$key" != "@KEY@" ]; then
  echo "Error: InvalidApiKey" >&2
  exit 3
fi
doc='@DOC@'
if [ "$mode" = "process" ]; then
  mkdir -p "$output"
  printf '%s' "$doc" > "$output/metadata.json"
  for n in 01 02; do
    printf 'RIFF\044\000\000\000WAVE' > "$output/track_$n.wav"
    head -c 32 /dev/zero >> "$output/track_$n.wav"
  done
elif [ -n "$dest" ]; then
  printf '%s' "$doc" > "$dest"
else
  printf '%s\n' "$doc"
fi
`
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	engine     string
	stagingDir string
	historyDB  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine requires a POSIX shell")
	}

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv(ddp.BinaryEnv, "")
	t.Setenv("DDP_LICENSE_KEY", "")
	t.Setenv("DDP_TOKEN_FILE", "")

	engine := filepath.Join(base, "bin", "ddp")
	if err := os.MkdirAll(filepath.Dir(engine), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	script := strings.NewReplacer("@KEY@", testKey, "@DOC@", testDoc).Replace(engineShell)
	if err := os.WriteFile(engine, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "ddp-sdk.toml"),
		engine:     engine,
		stagingDir: filepath.Join(base, "staging"),
		historyDB:  filepath.Join(base, "data", "history.db"),
	}
	env.writeConfig(t, testKey, true)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T, key string, historyEnabled bool) {
	t.Helper()
	content := fmt.Sprintf(`[engine]
binary = %q
license_key = %q

[paths]
staging_dir = %q
log_dir = %q

[history]
enabled = %t
path = %q
`, e.engine, key, e.stagingDir, filepath.Join(e.baseDir, "logs"), historyEnabled, e.historyDB)
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if env != nil {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeDDPDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{"DDPID": "DDP2.00", "PQDESCR": "pq", "SD.SD": "\x00\x00"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
