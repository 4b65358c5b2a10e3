package ddp_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const (
	goodKey    = "good-key"
	invalidKey = "invalid-garbage-token"
	sampleDoc  = `{"disc":{"upc":"0123456789012"},"tracks":[{"number":1,"title":"Opening","isrc":"usabc2400001"},{"number":2,"title":"Closing"}]}`
)

type fakeEngine struct {
	// listing receives `ls` of the input directory when set.
	listing string
	// doc overrides the emitted metadata document.
	doc string
	// skipMetadata exits 0 without writing metadata.json.
	skipMetadata bool
	// sleep delays the engine before it does anything.
	sleep string
}

const fakeEngineScript = `#!/bin/sh
mode="$1"; shift
input="$1"; shift
output=""
if [ "$mode" = "process" ]; then output="$1"; shift; fi
key=""
dest=""
while [ $# -gt 0 ]; do
  case "$1" in
    --license-key) key="$2"; shift 2 ;;
    --output) dest="$2"; shift 2 ;;
    *) echo "unexpected argument: $1" >&2; exit 64 ;;
  esac
done
@SLEEP@
if [ "$key" != "@KEY@" ]; then
  echo "Error: InvalidApiKey: licence key rejected" >&2
  exit 3
fi
if [ -n "@LISTING@" ]; then ls "$input" > "@LISTING@"; fi
doc='@DOC@'
case "$mode" in
  process)
    mkdir -p "$output"
    if [ "@SKIP@" != "yes" ]; then printf '%s' "$doc" > "$output/metadata.json"; fi
    for n in 01 02; do
      printf 'RIFF\044\000\000\000WAVE' > "$output/track_$n.wav"
      head -c 32 /dev/zero >> "$output/track_$n.wav"
    done
    ;;
  json)
    if [ -n "$dest" ]; then printf '%s' "$doc" > "$dest"; else printf '%s\n' "$doc"; fi
    ;;
  *)
    echo "unknown mode: $mode" >&2
    exit 64
    ;;
esac
`

// writeFakeEngine writes an executable stand-in for the ddp engine and returns its path.
func writeFakeEngine(t *testing.T, cfg fakeEngine) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine requires a POSIX shell")
	}
	doc := cfg.doc
	if doc == "" {
		doc = sampleDoc
	}
	skip := "no"
	if cfg.skipMetadata {
		skip = "yes"
	}
	sleep := ""
	if cfg.sleep != "" {
		sleep = "exec sleep " + cfg.sleep
	}
	script := strings.NewReplacer(
		"@KEY@", goodKey,
		"@LISTING@", cfg.listing,
		"@DOC@", doc,
		"@SKIP@", skip,
		"@SLEEP@", sleep,
	).Replace(fakeEngineScript)

	path := filepath.Join(t.TempDir(), "ddp")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

// writeInputDir creates a minimal DDP directory for path-based calls.
func writeInputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range map[string]string{"DDPID": "DDP2.00", "PQDESCR": "1 1 0 0 0", "SD.SD": "\x00\x00"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatalf("write input part: %v", err)
		}
	}
	return dir
}

func stagingLeftovers(t *testing.T, root string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, "ddp-in-*"))
	if err != nil {
		t.Fatalf("glob staging root: %v", err)
	}
	return matches
}
