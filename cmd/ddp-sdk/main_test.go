package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ddpsdk/internal/ddp"
	"ddpsdk/internal/services"
)

func TestProcessCommandWritesTracksAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	out := filepath.Join(env.baseDir, "out")

	stdout, stderr, err := runCLI(t, env, "process", writeDDPDir(t), out, "--verify")
	if err != nil {
		t.Fatalf("process: %v\nstderr: %s", err, stderr)
	}
	requireContains(t, stdout, "Overture")
	requireContains(t, stdout, "GBXYZ2400001")
	requireContains(t, stdout, "Wrote 2 tracks")
	requireContains(t, stdout, "track_02.wav")
	requireContains(t, stderr, "running ddp engine")

	if _, err := os.Stat(filepath.Join(out, "track_01.wav")); err != nil {
		t.Fatalf("expected track file: %v", err)
	}

	stdout, _, err = runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, "process")
	requireContains(t, stdout, out)
	if strings.Contains(stdout, testKey) {
		t.Fatal("licence key leaked into history output")
	}
}

func TestProcessCommandInvalidKeyMapsToEngineExit(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "process", writeDDPDir(t), filepath.Join(env.baseDir, "out"), "--license-key", "wrong")
	var engineErr *ddp.EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected EngineError, got %v", err)
	}
	if services.ExitCode(err) != services.ExitEngine {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
	requireContains(t, err.Error(), "InvalidApiKey")
}

func TestProcessCommandRequiresLicenseKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeConfig(t, "", false)

	_, _, err := runCLI(t, env, "process", writeDDPDir(t), filepath.Join(env.baseDir, "out"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitConfiguration {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
}

func TestPartsCommandStagesAndCleansUp(t *testing.T) {
	env := setupCLITestEnv(t)
	out := filepath.Join(env.baseDir, "parts-out")

	stdout, stderr, err := runCLI(t, env, "--json", "parts", writeDDPDir(t), out)
	if err != nil {
		t.Fatalf("parts: %v\nstderr: %s", err, stderr)
	}
	var payload struct {
		Output   string          `json:"output"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	doc, err := ddp.ParseDocument(payload.Metadata)
	if err != nil || doc.TrackCount() != 2 {
		t.Fatalf("unexpected metadata: %v %s", err, payload.Metadata)
	}
	leftovers, _ := filepath.Glob(filepath.Join(env.stagingDir, ddp.StagingPrefix+"*"))
	if len(leftovers) != 0 {
		t.Fatalf("staging directories left behind: %v", leftovers)
	}
}

func TestPartsCommandRejectsEmptyDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "parts", t.TempDir(), filepath.Join(env.baseDir, "out"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJSONCommandModes(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeDDPDir(t)

	stdout, _, err := runCLI(t, env, "json", input, "--raw")
	if err != nil {
		t.Fatalf("json --raw: %v", err)
	}
	if strings.TrimSpace(stdout) != testDoc {
		t.Fatalf("raw output mismatch: %q", stdout)
	}

	dest := filepath.Join(env.baseDir, "meta", "doc.json")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	stdout, _, err = runCLI(t, env, "json", input, "--output", dest)
	if err != nil {
		t.Fatalf("json --output: %v", err)
	}
	requireContains(t, stdout, "Wrote metadata for 2 tracks")
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != testDoc {
		t.Fatalf("unexpected destination content: %q (%v)", data, err)
	}
	if wavs, _ := filepath.Glob(filepath.Join(filepath.Dir(dest), "*.wav")); len(wavs) != 0 {
		t.Fatalf("json mode wrote audio: %v", wavs)
	}
}

func TestVerifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out := filepath.Join(env.baseDir, "out")
	if _, _, err := runCLI(t, env, "process", writeDDPDir(t), out); err != nil {
		t.Fatalf("process: %v", err)
	}

	stdout, _, err := runCLI(t, env, "verify", out)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	requireContains(t, stdout, "All 2 tracks verified")

	if err := os.WriteFile(filepath.Join(out, "track_02.wav"), []byte("short"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err = runCLI(t, env, "verify", out)
	if !errors.Is(err, ddp.ErrOutputContract) {
		t.Fatalf("expected contract error, got %v", err)
	}
	requireContains(t, stdout, "shorter than a WAV header")

	_, _, err = runCLI(t, env, "verify", t.TempDir())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error for missing metadata, got %v", err)
	}
	if services.ExitCode(err) != services.ExitFailure {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}

	if err := os.WriteFile(filepath.Join(out, ddp.MetadataFileName), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, env, "verify", out); !errors.Is(err, ddp.ErrOutputContract) {
		t.Fatalf("expected contract error for unreadable metadata, got %v", err)
	}
}

func TestDoctorCommandReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, _ := runCLI(t, env, "doctor")
	requireContains(t, stdout, "DDP SDK doctor")
	requireContains(t, stdout, "DDP engine:")
	requireContains(t, stdout, "[OK] "+env.engine)
	requireContains(t, stdout, "Licence key:")
	if strings.Contains(stdout, testKey) {
		t.Fatal("doctor revealed the licence key")
	}
}

func TestStagingCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.stagingDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(env.stagingDir, ddp.StagingPrefix+"stale")
	if err := os.Mkdir(stale, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, "DDPID"), []byte("DDP2.00"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, env, "staging", "list")
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, stdout, ddp.StagingPrefix+"stale")
	requireContains(t, stdout, "Total: 1 directories")

	_, _, err = runCLI(t, env, "staging", "clean", "--max-age", "0")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for --max-age 0, got %v", err)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("rejected clean touched the staging root: %v", err)
	}

	stdout, _, err = runCLI(t, env, "staging", "clean", "--max-age", "1h")
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, stdout, "Removed 1 staging directories")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale directory removed, got %v", err)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeConfig(t, testKey, false)
	stdout, _, err := runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, "History is disabled")
}

func TestHistoryJSONAndPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "json", writeDDPDir(t)); err != nil {
		t.Fatalf("json: %v", err)
	}
	stdout, _, err := runCLI(t, env, "--json", "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []map[string]any
	if err := json.Unmarshal([]byte(stdout), &runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 1 || runs[0]["mode"] != "json" {
		t.Fatalf("unexpected history: %v", runs)
	}

	stdout, _, err = runCLI(t, env, "history", "prune", "--older-than", "0s")
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, stdout, "Removed 1 invocations")
}

func TestConfigInitShowValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout, "<redacted>")
	if strings.Contains(stdout, testKey) {
		t.Fatal("config show revealed the licence key")
	}

	stdout, _, err = runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	stdout, _, err = runCLI(t, nil, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration")
	if _, _, err := runCLI(t, nil, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists")
	}
}

func TestInvalidLogLevelIsConfigurationError(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "--log-level", "chatty", "history")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLogsCommandShowsEngineRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env, "logs")
	if err != nil {
		t.Fatalf("logs before any run: %v", err)
	}
	requireContains(t, stdout, "No log entries available")

	if _, stderr, err := runCLI(t, env, "process", writeDDPDir(t), filepath.Join(env.baseDir, "out")); err != nil {
		t.Fatalf("process: %v\nstderr: %s", err, stderr)
	}

	stdout, _, err = runCLI(t, env, "logs", "--lines", "0")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, stdout, "running ddp engine")

	stdout, _, err = runCLI(t, env, "logs", "--invocation", "no-such-invocation")
	if err != nil {
		t.Fatalf("logs filtered: %v", err)
	}
	requireContains(t, stdout, "No log entries available")
}
