package ddp

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestStageWritesPartsVerbatim(t *testing.T) {
	root := t.TempDir()
	parts := PartSet{
		PartIdentifier: []byte("DDP2.00"),
		PartSectorData: {0x00, 0xff, 0x10},
		PartImage:      {},
		"VENDOR.EXT":   []byte("kept"),
	}
	dir, err := stage(root, parts)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	defer os.RemoveAll(dir)

	if filepath.Dir(dir) != root || !strings.HasPrefix(filepath.Base(dir), StagingPrefix) {
		t.Fatalf("unexpected staging dir %q", dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat staging dir: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o700 {
		t.Fatalf("staging dir should be private, got %v", info.Mode().Perm())
	}
	for name, want := range parts {
		got, err := os.ReadFile(filepath.Join(dir, StagedFileName(name)))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(got) != string(want) {
			t.Fatalf("part %s altered: got %v want %v", name, got, want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, PartSectorData)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("sector data must only be staged as SD.SD")
	}
}

func TestStageDirectoriesAreUnique(t *testing.T) {
	root := t.TempDir()
	parts := PartSet{PartIdentifier: []byte("x")}
	a, err := stage(root, parts)
	if err != nil {
		t.Fatalf("stage a: %v", err)
	}
	b, err := stage(root, parts)
	if err != nil {
		t.Fatalf("stage b: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct staging directories")
	}
}

func TestWithStagingRemovesOnEveryPath(t *testing.T) {
	root := t.TempDir()
	parts := PartSet{PartIdentifier: []byte("x")}
	var seen string
	boom := errors.New("engine failed")

	err := withStaging(root, parts, func(dir string) error {
		seen = dir
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, statErr := os.Stat(seen); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("staging dir survived failure: %v", statErr)
	}

	if err := withStaging(root, parts, func(dir string) error { seen = dir; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, statErr := os.Stat(seen); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("staging dir survived success: %v", statErr)
	}
}

func TestStageRemovesPartialDirectoryOnWriteFailure(t *testing.T) {
	root := t.TempDir()
	// A name longer than NAME_MAX passes validation but cannot be created.
	parts := PartSet{PartIdentifier: []byte("x"), strings.Repeat("A", 300): []byte("y")}
	if _, err := stage(root, parts); !errors.Is(err, ErrStaging) {
		t.Fatalf("expected staging error, got %v", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected partial staging dir to be removed, found %d entries", len(entries))
	}
}
