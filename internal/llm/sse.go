package llm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
)

type SSEEvent struct {
	Event string
	Data  []byte
}

// IsDone reports the OpenAI-style end-of-stream sentinel.
func (e SSEEvent) IsDone() bool {
	return string(bytes.TrimSpace(e.Data)) == "[DONE]"
}

// ErrStopSSE is returned by a ParseSSE callback to stop reading. ParseSSE then returns
// nil, so a consumer that sees the "[DONE]" sentinel or stops ranging ends the stream
// without reporting an error. Callers that need to tell the two apart track it
// themselves.
var ErrStopSSE = errors.New("stop sse")

// ParseSSE reads Server-Sent Events from r and calls fn once per event, at each blank
// line and at EOF. Only the event and data fields are kept; multi-line data is joined
// with "\n". Context errors are returned as AbortError or RequestTimeoutError.
func ParseSSE(ctx context.Context, r io.Reader, fn func(ev SSEEvent) error) error {
	p := sseParser{fn: fn}
	err := p.run(ctx, bufio.NewReader(r))
	if errors.Is(err, ErrStopSSE) {
		return nil
	}
	return wrapContextError("", err)
}

type sseParser struct {
	fn    func(SSEEvent) error
	event string
	data  bytes.Buffer
	// lines counts data lines in the pending event; an empty data line still counts.
	lines int
}

func (p *sseParser) run(ctx context.Context, br *bufio.Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return readErr
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err := p.dispatch(); err != nil {
				return err
			}
		} else {
			p.field(line)
		}
		if readErr == io.EOF {
			return p.dispatch()
		}
	}
}

func (p *sseParser) field(line string) {
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")
	switch name {
	case "":
		// comment
	case "event":
		p.event = strings.TrimSpace(value)
	case "data":
		if p.lines > 0 {
			p.data.WriteByte('\n')
		}
		p.data.WriteString(value)
		p.lines++
	}
}

func (p *sseParser) dispatch() error {
	if p.event == "" && p.lines == 0 {
		return nil
	}
	ev := SSEEvent{Event: p.event, Data: bytes.Clone(p.data.Bytes())}
	p.event, p.lines = "", 0
	p.data.Reset()
	return p.fn(ev)
}
