package ddp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ddpsdk/internal/ddp"
)

// TestRealEngine runs against an installed engine when DDP_SDK_BIN,
// DDP_INPUT_DIR, and DDP_TOKEN_FILE are all set.
func TestRealEngine(t *testing.T) {
	binary := os.Getenv(ddp.BinaryEnv)
	input := os.Getenv("DDP_INPUT_DIR")
	tokenFile := os.Getenv("DDP_TOKEN_FILE")
	if binary == "" || input == "" || tokenFile == "" {
		t.Skip("set DDP_SDK_BIN, DDP_INPUT_DIR, and DDP_TOKEN_FILE to run against a real engine")
	}
	token, err := os.ReadFile(tokenFile)
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	key := strings.TrimSpace(string(token))

	client := ddp.New(ddp.WithStagingRoot(t.TempDir()), ddp.WithTimeout(10*time.Minute))
	ctx := context.Background()

	t.Run("process", func(t *testing.T) {
		out := t.TempDir()
		doc, err := client.Process(ctx, input, out, key)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if doc.TrackCount() == 0 {
			t.Fatal("expected tracks")
		}
		if _, err := ddp.VerifyOutput(out, doc); err != nil {
			t.Fatalf("VerifyOutput: %v", err)
		}
	})

	t.Run("process parts", func(t *testing.T) {
		parts, err := ddp.LoadPartSet(input)
		if err != nil {
			t.Skipf("input is not a part directory: %v", err)
		}
		out := t.TempDir()
		doc, err := client.ProcessParts(ctx, parts, out, key)
		if err != nil {
			t.Fatalf("ProcessParts: %v", err)
		}
		if _, err := ddp.VerifyOutput(out, doc); err != nil {
			t.Fatalf("VerifyOutput: %v", err)
		}
	})

	t.Run("json", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "metadata.json")
		doc, err := client.ExtractMetadata(ctx, input, key, dest)
		if err != nil {
			t.Fatalf("ExtractMetadata: %v", err)
		}
		onDisk, err := ddp.ReadDocument(dest)
		if err != nil {
			t.Fatalf("ReadDocument: %v", err)
		}
		if onDisk.TrackCount() != doc.TrackCount() {
			t.Fatalf("track count mismatch: %d vs %d", onDisk.TrackCount(), doc.TrackCount())
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		_, err := client.ExtractMetadata(ctx, input, "invalid-"+key, "")
		var engineErr *ddp.EngineError
		if !errors.As(err, &engineErr) {
			t.Fatalf("expected EngineError, got %v", err)
		}
	})
}
