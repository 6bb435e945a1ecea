package events

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hasanawais/pica/internal/core"
	"github.com/hasanawais/pica/internal/model"
)

func TestFilePublishWritesOneJSONLinePerEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.log")

	f := NewFile(FileOptions{Path: path})
	defer f.Close()

	events := []core.Event{
		core.DeviceAdded{Category: model.CategoryUCI, MacAddress: model.NewShortAddress([2]byte{0x01, 0x00})},
		core.DeviceRemoved{Category: model.CategoryUCI, MacAddress: model.NewShortAddress([2]byte{0x01, 0x00})},
	}
	for _, ev := range events {
		if err := f.Publish(context.Background(), ev); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fh, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	var lines int
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line %d: %v", lines, err)
		}
		lines++
	}
	if lines != len(events) {
		t.Fatalf("wrote %d lines, want %d", lines, len(events))
	}
}

func TestFileName(t *testing.T) {
	f := NewFile(FileOptions{Path: "/tmp/pica-events.log"})
	defer f.Close()
	if f.Name() != "file:/tmp/pica-events.log" {
		t.Fatalf("Name() = %q", f.Name())
	}
}
