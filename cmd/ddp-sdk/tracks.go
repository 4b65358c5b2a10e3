package main

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"ddpsdk/internal/ddp"
)

func renderTrackTable(doc *ddp.Document) string {
	rows := make([][]string, 0, doc.TrackCount())
	for i, track := range doc.Tracks {
		rows = append(rows, []string{
			strconv.Itoa(track.Number(i + 1)),
			valueOrDash(track.Title()),
			valueOrDash(track.Performer()),
			valueOrDash(track.ISRC()),
			valueOrDash(track.Duration()),
		})
	}
	return renderTable([]column{
		{title: "#", numeric: true},
		{title: "Title"},
		{title: "Performer"},
		{title: "ISRC"},
		{title: "Duration", numeric: true},
	}, rows)
}

func renderVerifyTable(files []ddp.TrackFile) string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		status := "ok"
		if f.Err != nil {
			status = f.Err.Error()
		}
		size := "-"
		if f.Size > 0 {
			size = humanize.IBytes(uint64(f.Size)) //nolint:gosec
		}
		rows = append(rows, []string{
			strconv.Itoa(f.Number),
			ddp.TrackFileName(f.Number),
			size,
			status,
		})
	}
	return renderTable([]column{
		{title: "#", numeric: true},
		{title: "File"},
		{title: "Size", numeric: true},
		{title: "Status"},
	}, rows)
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func firstLine(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		return value[:idx]
	}
	return value
}
