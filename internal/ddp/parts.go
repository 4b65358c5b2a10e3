package ddp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Logical part names understood by the engine.
const (
	PartIdentifier   = "DDPID"
	PartPQDescriptor = "PQDESCR"
	PartSectorData   = "SD"
	PartMapStream    = "DDPMS"
	PartMapStreamDAT = "DDPMS.DAT"
	PartImage        = "IMAGE.DAT"
	PartCDText       = "CDTEXT.BIN"
)

// sectorDataFileName is the on-disk name the engine expects for PartSectorData.
const sectorDataFileName = "SD.SD"

// PartSet maps logical part names to their raw bytes.
type PartSet map[string][]byte

// KnownParts lists the logical part names in a stable order.
func KnownParts() []string {
	return []string{
		PartIdentifier,
		PartPQDescriptor,
		PartSectorData,
		PartMapStream,
		PartMapStreamDAT,
		PartImage,
		PartCDText,
	}
}

// IsKnownPart reports whether name belongs to the engine vocabulary.
func IsKnownPart(name string) bool {
	for _, known := range KnownParts() {
		if name == known {
			return true
		}
	}
	return false
}

// StagedFileName returns the filename a part is written under. Only the raw
// sector stream is renamed.
func StagedFileName(part string) string {
	if part == PartSectorData {
		return sectorDataFileName
	}
	return part
}

// Names returns the part names in sorted order.
func (p PartSet) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the total byte count across all parts.
func (p PartSet) Size() int64 {
	var total int64
	for _, data := range p {
		total += int64(len(data))
	}
	return total
}

func validatePartName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("empty part name")
	case name == "." || name == "..":
		return fmt.Errorf("invalid part name %q", name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("part name %q contains a path separator", name)
	}
	return nil
}

// LoadPartSet reads a DDP fileset from dir into a PartSet. File names are
// matched case-insensitively, SD.SD is mapped back to PartSectorData, and files
// outside the engine vocabulary are skipped.
func LoadPartSet(dir string) (PartSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read ddp directory: %w", err)
	}
	parts := make(PartSet)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		key := strings.ToUpper(entry.Name())
		if key == sectorDataFileName {
			key = PartSectorData
		}
		if !IsKnownPart(key) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", entry.Name(), err)
		}
		parts[key] = data
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no ddp parts found in %s", dir)
	}
	return parts, nil
}
