package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hasanawais/pica/internal/core"
)

// Stdout writes one JSON record per event to standard output.
type Stdout struct{}

// NewStdout creates a stdout sink.
func NewStdout() *Stdout {
	return &Stdout{}
}

// Publish implements Sink.
func (s *Stdout) Publish(_ context.Context, ev core.Event) error {
	data, err := json.Marshal(newRecord(ev, time.Now()))
	if err != nil {
		return fmt.Errorf("events: marshal record: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

// Close implements Sink; stdout needs no teardown.
func (s *Stdout) Close() error { return nil }

// Name implements Sink.
func (s *Stdout) Name() string { return "stdout" }
