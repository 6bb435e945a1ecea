package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hasanawais/pica/internal/core"
)

// File writes one JSON record per line to a rotating log file, delegating
// rotation to lumberjack.Logger (gopkg.in/natefinch/lumberjack.v2).
type File struct {
	path   string
	writer io.WriteCloser
}

// FileOptions configures the rotating file sink.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewFile creates a file sink writing to opts.Path, rotating per opts.
func NewFile(opts FileOptions) *File {
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	return &File{
		path: opts.Path,
		writer: &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		},
	}
}

// Publish implements Sink.
func (f *File) Publish(_ context.Context, ev core.Event) error {
	data, err := json.Marshal(newRecord(ev, time.Now()))
	if err != nil {
		return fmt.Errorf("events: marshal record: %w", err)
	}
	data = append(data, '\n')
	_, err = f.writer.Write(data)
	return err
}

// Close implements Sink.
func (f *File) Close() error {
	return f.writer.Close()
}

// Name implements Sink.
func (f *File) Name() string {
	return fmt.Sprintf("file:%s", f.path)
}
