package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benchwire-project/benchwire-go/pkg/log"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

// readChunk is the transport read size. Large enough that memory
// transfers do not crawl, small enough not to matter for line reads.
const readChunk = 64 * 1024

// Send performs one synchronous command round trip: encode, wait out
// the inter-command gap, write, and read the response frames the
// vocabulary expects within the command timeout.
//
// Encoding and validation errors return before anything reaches the
// wire. Context cancellation is honoured only before the write; once
// bytes are out, the exchange runs to completion or timeout. A timeout
// (and any wire fault) moves the session to Suspect; a malformed
// response frame does not, the read buffer is simply dropped.
func (s *Session) Send(ctx context.Context, cmd scpi.Command) (scpi.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateConnected:
	case StateSuspect:
		return scpi.Response{}, fmt.Errorf("%s: %w", cmd.Name(), ErrSuspect)
	case StateClosing, StateClosed:
		return scpi.Response{}, fmt.Errorf("%s: %w", cmd.Name(), ErrClosed)
	default:
		return scpi.Response{}, fmt.Errorf("%s: %w", cmd.Name(), ErrNotConnected)
	}

	wire, err := s.vocab.Encode(cmd)
	if err != nil {
		return scpi.Response{}, err
	}
	parts := s.vocab.ResponseParts(cmd)

	// Inter-command gap: give the firmware its parse window.
	if s.opts.Gap > 0 {
		if since := time.Since(s.lastWrite); since < s.opts.Gap {
			time.Sleep(s.opts.Gap - since)
		}
	}

	// Last exit before the wire.
	if err := ctx.Err(); err != nil {
		return scpi.Response{}, err
	}

	if _, err := s.conn.Write(wire); err != nil {
		s.markSuspectLocked("write: " + err.Error())
		return scpi.Response{}, fmt.Errorf("%s: write: %w", cmd.Name(), err)
	}
	start := time.Now()
	s.lastWrite = start
	s.logCommand(log.DirectionOut, cmd, string(wire), nil, 0)

	if parts == 0 {
		return scpi.Response{Status: scpi.StatusOk}, nil
	}

	resp, err := s.collect(cmd, parts, start)
	if err != nil {
		return scpi.Response{}, err
	}
	s.logCommand(log.DirectionIn, cmd, "", &resp, time.Since(start))
	return resp, nil
}

// collect reads until the expected number of response frames has been
// decoded or the command window elapses. Caller holds s.mu.
func (s *Session) collect(cmd scpi.Command, parts int, start time.Time) (scpi.Response, error) {
	deadline := start.Add(s.opts.CommandTimeout)
	resp := scpi.Response{Status: scpi.StatusOk}
	collected := 0

	for collected < parts {
		// Drain whatever the buffer already holds.
		for collected < parts {
			frame, n, err := scpi.Decode(s.rbuf)
			if errors.Is(err, scpi.ErrNeedMoreData) {
				break
			}
			if err != nil {
				// Framing fault: drop the buffer, stay Connected.
				s.rbuf = nil
				s.logError(cmd.Name(), err)
				return scpi.Response{}, fmt.Errorf("%s: %w", cmd.Name(), err)
			}
			s.rbuf = s.rbuf[n:]
			mergeFrame(&resp, frame)
			collected++
		}
		if collected == parts {
			break
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			s.markSuspectLocked("command timeout")
			return scpi.Response{}, fmt.Errorf("%s: %w", cmd.Name(), ErrTimeout)
		}
		if err := s.conn.SetReadTimeout(remaining); err != nil {
			s.markSuspectLocked("set read timeout: " + err.Error())
			return scpi.Response{}, fmt.Errorf("%s: %w", cmd.Name(), err)
		}

		buf := make([]byte, readChunk)
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.rbuf = append(s.rbuf, buf[:n]...)
		}
		if err != nil {
			if errors.Is(err, transport.ErrReadTimeout) {
				s.markSuspectLocked("command timeout")
				return scpi.Response{}, fmt.Errorf("%s: %w", cmd.Name(), ErrTimeout)
			}
			s.markSuspectLocked("read: " + err.Error())
			return scpi.Response{}, fmt.Errorf("%s: read: %w", cmd.Name(), err)
		}
	}
	return resp, nil
}

// mergeFrame folds one decoded frame into the response: text frames
// carry the payload, block frames the binary body.
func mergeFrame(resp *scpi.Response, frame scpi.Response) {
	if frame.Block != nil {
		resp.Block = frame.Block
		return
	}
	if resp.Payload == "" {
		resp.Payload = frame.Payload
	} else {
		resp.Payload += "\n" + frame.Payload
	}
}
