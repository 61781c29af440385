package api

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	cblog "github.com/charmbracelet/log"
)

// SSE buffer configuration defaults
const (
	DefaultInitialBuffer = 64 * 1024
	DefaultMaxBuffer     = 4 * 1024 * 1024
)

// Event is one server-sent event of a collection change feed
type Event struct {
	ID   string
	Type string
	Data string
}

// getSSEBufferConfig returns SSE buffer sizes from the environment or defaults
func getSSEBufferConfig() (initial, max int) {
	initial = DefaultInitialBuffer
	max = DefaultMaxBuffer
	if val := os.Getenv("BACKOFFICE_SSE_INITIAL_BUFFER"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			initial = parsed
		}
	}
	if val := os.Getenv("BACKOFFICE_SSE_MAX_BUFFER"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > initial {
			max = parsed
		}
	}
	return
}

// scanEvents splits a stream into SSE events (terminated by a blank line).
// Oversized events are cut at the last newline so the scanner never fails
// with ErrTooLong.
func scanEvents(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if idx := bytes.Index(data, []byte("\n\n")); idx >= 0 {
		return idx + 2, data[:idx+2], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	const maxChunkSize = 1024 * 1024
	if len(data) >= maxChunkSize {
		if lastNewline := bytes.LastIndexByte(data[:maxChunkSize], '\n'); lastNewline > 0 {
			return lastNewline + 1, data[:lastNewline+1], nil
		}
		return maxChunkSize, data[:maxChunkSize], nil
	}
	return 0, nil, nil
}

func newEventScanner(stream io.Reader, initialSize, maxSize int) *bufio.Scanner {
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, initialSize), maxSize)
	scanner.Split(scanEvents)
	return scanner
}

// parseEvent reads the id, event and data fields of one raw event.
// Multiple data lines are joined with newlines; comments are ignored.
func parseEvent(raw string) (Event, bool) {
	var ev Event
	var data []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			ev.ID = value
		case "event":
			ev.Type = value
		case "data":
			data = append(data, value)
		}
	}
	if len(data) == 0 && ev.Type == "" {
		return Event{}, false
	}
	if ev.Type == "" {
		ev.Type = "message"
	}
	ev.Data = strings.Join(data, "\n")
	return ev, true
}

// ReadEvents calls fn for each event on stream until fn returns false or
// the stream ends.
func ReadEvents(stream io.Reader, fn func(Event) bool) error {
	initial, max := getSSEBufferConfig()
	scanner := newEventScanner(stream, initial, max)
	for scanner.Scan() {
		ev, ok := parseEvent(scanner.Text())
		if !ok {
			continue
		}
		if !fn(ev) {
			return nil
		}
	}
	return scanner.Err()
}

// Watch follows the collection's change feed at endpoint/events until ctx
// ends, calling fn for every event.
func (c *Collection) Watch(ctx context.Context, fn func(Event)) error {
	body, err := c.client.Stream(ctx, c.endpoint+"/events")
	if err != nil {
		return err
	}
	defer body.Close()
	logger := cblog.With("component", "api", "endpoint", c.endpoint)
	logger.Debug("Watching change feed")
	err = ReadEvents(body, func(ev Event) bool {
		fn(ev)
		return ctx.Err() == nil
	})
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		logger.Warn("Change feed ended", "err", err)
	}
	return err
}
