package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"deskpilot/internal/logging"
)

// ErrMalformedMessage marks a file that could not be parsed as an
// envelope. The file is left in place for diagnosis.
var ErrMalformedMessage = errors.New("communication_error")

const defaultPollTick = 200 * time.Millisecond

// Bus is the directory-backed message channel. All operations are safe
// for concurrent use: each message is its own file and delete-on-read is
// the delivery commit.
type Bus struct {
	base     string
	pollTick time.Duration
}

// Option configures a Bus.
type Option func(*Bus)

// WithPollTick sets the poll interval used while a receive waits.
func WithPollTick(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.pollTick = d
		}
	}
}

// New creates a bus rooted at base. Call EnsureTopics before use.
func New(base string, opts ...Option) *Bus {
	b := &Bus{base: base, pollTick: defaultPollTick}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Base returns the bus root directory.
func (b *Bus) Base() string { return b.base }

// EnsureTopics creates the topic directories.
func (b *Bus) EnsureTopics() error {
	for _, topic := range AllTopics {
		if err := os.MkdirAll(b.dir(topic), 0o755); err != nil {
			return fmt.Errorf("create topic %s: %w", topic, err)
		}
	}
	logging.BusDebug("topics ready under %s", b.base)
	return nil
}

func (b *Bus) dir(topic Topic) string {
	return filepath.Join(b.base, string(topic))
}

// Send writes a message to a topic. The file appears only after the
// whole content is written: write to a temp name, then rename.
func (b *Bus) Send(topic Topic, msg *Message) error {
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal message %s: %w", msg.ID, err)
	}

	final := filepath.Join(b.dir(topic), msg.ID+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrMalformedMessage, tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("%w: publish %s: %v", ErrMalformedMessage, final, err)
	}

	logging.BusDebug("sent %s id=%s to %s", msg.Type, msg.ID, topic)
	return nil
}

// Receive takes the oldest message from a topic. Delete-on-read is the
// delivery commit. A zero timeout checks once and returns (nil, nil)
// when the topic is empty; otherwise the call waits, woken by directory
// notifications and a poll tick, and returns (nil, nil) on timeout. A
// malformed file fails the call and stays in place.
func (b *Bus) Receive(ctx context.Context, topic Topic, timeout time.Duration) (*Message, error) {
	return b.receive(ctx, topic, timeout, func(candidates []string) (string, bool) {
		if len(candidates) == 0 {
			return "", false
		}
		return candidates[0], true
	})
}

// ReceiveByID waits for the message whose id matches, used for
// correlated responses. Other messages in the topic are left untouched.
func (b *Bus) ReceiveByID(ctx context.Context, topic Topic, id string, timeout time.Duration) (*Message, error) {
	want := id + ".json"
	return b.receive(ctx, topic, timeout, func(candidates []string) (string, bool) {
		for _, path := range candidates {
			if filepath.Base(path) == want {
				return path, true
			}
		}
		return "", false
	})
}

// receive runs the shared wait loop. pick selects one path from the
// oldest-first candidate list.
func (b *Bus) receive(ctx context.Context, topic Topic, timeout time.Duration, pick func([]string) (string, bool)) (*Message, error) {
	deadline := time.Now().Add(timeout)

	var watcher *fsnotify.Watcher
	if timeout > 0 {
		w, err := fsnotify.NewWatcher()
		if err == nil && w.Add(b.dir(topic)) == nil {
			watcher = w
			defer watcher.Close()
		} else if w != nil {
			w.Close()
		}
	}

	for {
		candidates, err := b.listOldestFirst(topic)
		if err != nil {
			return nil, err
		}
		if path, ok := pick(candidates); ok {
			return b.take(path)
		}

		if timeout <= 0 || time.Now().After(deadline) {
			return nil, nil
		}

		remaining := time.Until(deadline)
		tick := b.pollTick
		if remaining < tick {
			tick = remaining
		}
		if watcher != nil {
			select {
			case <-watcher.Events:
			case <-time.After(tick):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else {
			select {
			case <-time.After(tick):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

// listOldestFirst returns the topic's message files sorted by mtime.
func (b *Bus) listOldestFirst(topic Topic) ([]string, error) {
	entries, err := os.ReadDir(b.dir(topic))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list topic %s: %v", ErrMalformedMessage, topic, err)
	}

	type candidate struct {
		path  string
		mtime time.Time
	}
	var files []candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // racing with a concurrent delete
		}
		files = append(files, candidate{
			path:  filepath.Join(b.dir(topic), entry.Name()),
			mtime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mtime.Before(files[j].mtime) })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// take reads, parses, and deletes one message file. The delete is the
// delivery commit; competing consumers lose the race benignly.
func (b *Bus) take(path string) (*Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // another consumer committed first
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrMalformedMessage, path, err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: malformed message file %s: %v", ErrMalformedMessage, path, err)
	}
	if msg.ID == "" || msg.Type == "" {
		return nil, fmt.Errorf("%w: incomplete message file %s", ErrMalformedMessage, path)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: commit %s: %v", ErrMalformedMessage, path, err)
	}

	logging.BusDebug("received %s id=%s", msg.Type, msg.ID)
	return &msg, nil
}
