package ddp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MetadataFileName is written by the engine into the process-mode output directory.
const MetadataFileName = "metadata.json"

var errMissingTracks = errors.New(`metadata document has no "tracks" array`)

// Document is the engine's metadata document. Tracks keeps the engine's
// per-track objects untouched; Fields holds every other top-level key.
type Document struct {
	Tracks []Track
	Fields map[string]json.RawMessage
	raw    []byte
}

// Track is one engine-defined track entry, kept as the exact JSON the engine
// wrote. Entries need not be objects; the accessors below are best-effort
// conveniences for display and return zero values for other shapes.
type Track struct {
	raw json.RawMessage
}

// NewTrack wraps raw JSON as a track entry.
func NewTrack(raw []byte) Track {
	return Track{raw: bytes.Clone(raw)}
}

// Raw returns the entry's JSON exactly as the engine wrote it.
func (t Track) Raw() json.RawMessage {
	return bytes.Clone(t.raw)
}

func (t Track) MarshalJSON() ([]byte, error) {
	if len(t.raw) == 0 {
		return []byte("null"), nil
	}
	return t.raw, nil
}

func (t *Track) UnmarshalJSON(data []byte) error {
	t.raw = bytes.Clone(data)
	return nil
}

// fields decodes the entry as an object, keeping numbers exact. Non-object
// entries yield nil.
func (t Track) fields() map[string]any {
	dec := json.NewDecoder(bytes.NewReader(t.raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}

// ParseDocument decodes a metadata document. The payload must be a JSON object
// with a "tracks" array.
func ParseDocument(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if top == nil {
		return nil, errors.New("decode metadata: document is null")
	}
	rawTracks, ok := top["tracks"]
	if !ok {
		return nil, errMissingTracks
	}
	var tracks []Track
	if err := json.Unmarshal(rawTracks, &tracks); err != nil {
		return nil, fmt.Errorf("decode metadata tracks: %w", err)
	}
	if tracks == nil {
		return nil, errMissingTracks
	}
	delete(top, "tracks")
	return &Document{
		Tracks: tracks,
		Fields: top,
		raw:    bytes.Clone(data),
	}, nil
}

// ReadDocument reads and parses a metadata document from disk.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// RawJSON returns the exact bytes the document was parsed from.
func (d *Document) RawJSON() []byte {
	if d == nil {
		return nil
	}
	return bytes.Clone(d.raw)
}

// TrackCount returns the number of track entries.
func (d *Document) TrackCount() int {
	if d == nil {
		return 0
	}
	return len(d.Tracks)
}

// Field decodes a top-level field into out. It reports false when the key is absent.
func (d *Document) Field(key string, out any) (bool, error) {
	if d == nil {
		return false, nil
	}
	raw, ok := d.Fields[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode metadata field %s: %w", key, err)
	}
	return true, nil
}

// MarshalJSON re-assembles the document with tracks and all other fields.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+1)
	for key, value := range d.Fields {
		out[key] = value
	}
	tracks := d.Tracks
	if tracks == nil {
		tracks = []Track{}
	}
	out["tracks"] = tracks
	return json.Marshal(out)
}

// UnmarshalJSON parses with the same rules as ParseDocument.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

var keyFolder = cases.Fold()

// lookup finds the first key in keys present on the track, ignoring case.
func (t Track) lookup(keys ...string) (any, bool) {
	obj := t.fields()
	for _, want := range keys {
		if value, ok := obj[want]; ok {
			return value, true
		}
	}
	for key, value := range obj {
		folded := keyFolder.String(key)
		for _, want := range keys {
			if folded == keyFolder.String(want) {
				return value, true
			}
		}
	}
	return nil, false
}

func (t Track) text(keys ...string) string {
	value, ok := t.lookup(keys...)
	if !ok || value == nil {
		return ""
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	// CD-TEXT may arrive decomposed; compose it for display and comparison.
	return strings.TrimSpace(norm.NFC.String(s))
}

// Number returns the track number, or fallback when the entry has none.
func (t Track) Number(fallback int) int {
	value, ok := t.lookup("number", "track", "track_number", "index")
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// Title returns the CD-TEXT title, if any.
func (t Track) Title() string { return t.text("title", "name") }

// Performer returns the CD-TEXT performer, if any.
func (t Track) Performer() string { return t.text("performer", "artist") }

// ISRC returns the track ISRC, if any.
func (t Track) ISRC() string { return strings.ToUpper(t.text("isrc")) }

// Duration returns the engine's duration representation verbatim.
func (t Track) Duration() string { return t.text("duration", "length") }
