package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseSSE_EventsAndDone(t *testing.T) {
	in := ": keepalive\n" +
		"data: {\"a\":1}\n\n" +
		"event: ping\ndata: x\ndata: y\n\n" +
		"data: [DONE]\n\n" +
		"data: after\n\n"
	var got []SSEEvent
	err := ParseSSE(context.Background(), strings.NewReader(in), func(ev SSEEvent) error {
		if ev.IsDone() {
			return ErrStopSSE
		}
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("ParseSSE: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events want 2", len(got))
	}
	if string(got[0].Data) != `{"a":1}` {
		t.Fatalf("event 0 data: got %q", got[0].Data)
	}
	if got[1].Event != "ping" || string(got[1].Data) != "x\ny" {
		t.Fatalf("event 1: got %+v", got[1])
	}
}

func TestParseSSE_FlushesTrailingEventWithoutBlankLine(t *testing.T) {
	var n int
	err := ParseSSE(context.Background(), strings.NewReader("data: tail"), func(ev SSEEvent) error {
		n++
		if string(ev.Data) != "tail" {
			t.Fatalf("got %q", ev.Data)
		}
		return nil
	})
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestParseSSE_CanceledContextIsAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ParseSSE(ctx, strings.NewReader("data: x\n\n"), func(SSEEvent) error { return nil })
	var abort *AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("got %T (%v) want *AbortError", err, err)
	}
}

func TestParseSSE_FieldHandling(t *testing.T) {
	in := "id: 7\nretry: 100\ndata:tight\ndata:  two spaces\n\n" +
		"data:\n\n" +
		"event:  named \n\n"
	var got []SSEEvent
	err := ParseSSE(context.Background(), strings.NewReader(in), func(ev SSEEvent) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("ParseSSE: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events want 3: %+v", len(got), got)
	}
	if string(got[0].Data) != "tight\n two spaces" {
		t.Fatalf("event 0 data: got %q", got[0].Data)
	}
	if got[1].Event != "" || len(got[1].Data) != 0 {
		t.Fatalf("event 1: got %+v", got[1])
	}
	if got[2].Event != "named" || len(got[2].Data) != 0 {
		t.Fatalf("event 2: got %+v", got[2])
	}
}

func TestParseSSE_CallbackErrorIsReturned(t *testing.T) {
	boom := errors.New("bad chunk")
	err := ParseSSE(context.Background(), strings.NewReader("data: x\n\ndata: y\n\n"), func(SSEEvent) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}
