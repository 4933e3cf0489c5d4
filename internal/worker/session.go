// ABOUTME: One running embedding worker process and its stream readers
// ABOUTME: Demultiplexes stdout frames and stderr progress for a single caller
package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
)

const (
	eventBuffer   = 4
	rawLimit      = 512
	diagLimit     = 64 * 1024
	exitStatusLag = 2 * time.Second
)

type eventKind int

const (
	eventFrame eventKind = iota
	eventMalformed
	eventTerminated
)

type event struct {
	kind  eventKind
	frame frame
	raw   []byte
	err   error
}

type session struct {
	id     string
	proc   *process
	logger *slog.Logger

	events   chan event
	stop     chan struct{}
	stopOnce sync.Once
	exited   chan struct{}
	exitErr  error
	lost     atomic.Bool
	readers  sync.WaitGroup
	expected atomic.Int64
	progress models.ProgressFunc

	diagMu sync.Mutex
	diag   strings.Builder
}

func startSession(strategies []Strategy, progress models.ProgressFunc, logger *slog.Logger) (*session, error) {
	proc, err := launch(strategies)
	if err != nil {
		return nil, err
	}

	s := &session{
		id:       uuid.NewString(),
		proc:     proc,
		logger:   logger,
		events:   make(chan event, eventBuffer),
		stop:     make(chan struct{}),
		exited:   make(chan struct{}),
		progress: progress,
	}
	s.expected.Store(-1)

	s.readers.Add(2)
	go s.readStdout(proc.stdout)
	go s.readStderr(proc.stderr)
	go func() {
		s.readers.Wait()
		s.exitErr = proc.cmd.Wait()
		close(s.exited)
	}()

	logger.Info("embedding worker started", "session", s.id, "strategy", proc.strategy.Name, "pid", proc.cmd.Process.Pid)
	return s, nil
}

func (s *session) deliver(ev event) {
	select {
	case s.events <- ev:
	case <-s.stop:
	}
}

func (s *session) readStdout(r io.Reader) {
	defer s.readers.Done()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(strings.TrimSpace(string(line))) > 0 {
			f, decodeErr := decodeFrame(line)
			if decodeErr != nil {
				s.deliver(event{kind: eventMalformed, raw: line, err: decodeErr})
			} else {
				s.deliver(event{kind: eventFrame, frame: f})
			}
		}
		if err != nil {
			s.lost.Store(true)
			s.deliver(event{kind: eventTerminated, err: err})
			return
		}
	}
}

func (s *session) readStderr(r io.Reader) {
	defer s.readers.Done()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			trimmed := strings.TrimRight(line, "\r\n")
			if p, ok := parseProgressLine(trimmed, int(s.expected.Load())); ok {
				s.progress.Publish(p)
			} else {
				s.appendDiag(trimmed)
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *session) appendDiag(line string) {
	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	if s.diag.Len()+len(line) > diagLimit {
		return
	}
	s.diag.WriteString(line)
	s.diag.WriteByte('\n')
}

func (s *session) clearDiag() {
	s.diagMu.Lock()
	s.diag.Reset()
	s.diagMu.Unlock()
}

// augment appends buffered stderr and, once known, the exit status.
func (s *session) augment(base string) string {
	s.diagMu.Lock()
	diag := strings.TrimSpace(s.diag.String())
	s.diagMu.Unlock()

	msg := base
	if diag != "" {
		msg += "\n\nEmbedding worker stderr:\n" + diag
	}
	select {
	case <-s.exited:
		if state := s.proc.cmd.ProcessState; state != nil {
			msg += "\n\nEmbedding worker exit status: " + state.String()
		}
	default:
	}
	return msg
}

func (s *session) alive() bool {
	if s.lost.Load() {
		return false
	}
	select {
	case <-s.exited:
		return false
	case <-s.stop:
		return false
	default:
		return true
	}
}

// request writes one command and waits for its terminal frame.
func (s *session) request(ctx context.Context, requestID string, command any, expected int) (*models.EmbeddingBatch, error) {
	s.drainStale()

	data, err := encodeCommand(command)
	if err != nil {
		return nil, errs.Protocol(err, "Unable to encode the embedding request")
	}

	s.expected.Store(int64(expected))
	defer s.expected.Store(-1)

	if err := s.write(ctx, data); err != nil {
		if ctx.Err() != nil {
			return nil, s.contextError(ctx)
		}
		return nil, errs.Protocol(nil, "%s", s.augment(fmt.Sprintf("Unable to send the request to the embedding worker: %v", err)))
	}

	for {
		select {
		case <-ctx.Done():
			return nil, s.contextError(ctx)

		case ev := <-s.events:
			switch ev.kind {
			case eventTerminated:
				s.waitExit(exitStatusLag)
				return nil, errs.CommunicationLost(s.augment("The embedding worker stopped before returning a response."))

			case eventMalformed:
				return nil, errs.Protocol(nil, "%s", s.augment(fmt.Sprintf(
					"Unable to parse embedding worker output: %v. Raw: %s", ev.err, truncateRaw(ev.raw, rawLimit))))

			case eventFrame:
				f := ev.frame
				if f.requestID != "" && f.requestID != requestID {
					s.logger.Debug("discarding stale worker frame", "session", s.id, "request", f.requestID)
					continue
				}
				if f.kind == frameError {
					return nil, errs.Helper(s.augment(f.message))
				}
				s.clearDiag()
				return f.batch, nil
			}
		}
	}
}

func (s *session) contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.Protocol(ctx.Err(), "%s", s.augment("The embedding worker did not respond before the request timeout"))
	}
	return errs.Protocol(ctx.Err(), "The embedding request was cancelled")
}

// write sends data on stdin unless ctx ends first. A worker that stops
// reading can block the pipe, so expiry kills it to release the writer.
func (s *session) write(ctx context.Context, data []byte) error {
	done := make(chan error, 1)
	go func() {
		_, err := s.proc.stdin.Write(data)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.kill()
		return ctx.Err()
	}
}

func (s *session) kill() {
	if s.proc.cmd.Process != nil {
		_ = s.proc.cmd.Process.Kill()
	}
}

// drainStale discards frames left over from abandoned requests.
func (s *session) drainStale() {
	for {
		select {
		case ev := <-s.events:
			if ev.kind == eventTerminated {
				// Put it back so the request observes the dead worker.
				select {
				case s.events <- ev:
				default:
				}
				return
			}
			s.logger.Debug("discarding buffered worker event", "session", s.id)
		default:
			return
		}
	}
}

func (s *session) waitExit(limit time.Duration) bool {
	select {
	case <-s.exited:
		return true
	case <-time.After(limit):
		return false
	}
}

// close asks the worker to exit, then kills it after grace.
func (s *session) close(grace time.Duration) {
	s.stopOnce.Do(func() {
		close(s.stop)

		select {
		case <-s.exited:
		default:
			if data, err := encodeCommand(shutdownCommand{Type: commandShutdown}); err == nil {
				ctx, cancel := context.WithTimeout(context.Background(), grace)
				_ = s.write(ctx, data)
				cancel()
			}
		}
		_ = s.proc.stdin.Close()

		if !s.waitExit(grace) {
			s.logger.Warn("embedding worker did not exit, killing it", "session", s.id)
			s.kill()
			s.waitExit(grace)
		}
		s.logger.Info("embedding worker stopped", "session", s.id)
	})
}
