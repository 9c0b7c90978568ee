// Package replay reads recorded delta streams: one JSON llm.Delta per line.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/strongdm/turnstream/internal/llm"
)

const maxLine = 4 << 20

// Read yields the deltas recorded in r. Blank lines are skipped; a malformed line ends
// the sequence with an error naming its line number.
func Read(r io.Reader) iter.Seq2[llm.Delta, error] {
	return func(yield func(llm.Delta, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64<<10), maxLine)
		line := 0
		for sc.Scan() {
			line++
			b := bytes.TrimSpace(sc.Bytes())
			if len(b) == 0 {
				continue
			}
			var d llm.Delta
			if err := json.Unmarshal(b, &d); err != nil {
				yield(llm.Delta{}, fmt.Errorf("replay line %d: %w", line, err))
				return
			}
			if !yield(d, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(llm.Delta{}, fmt.Errorf("replay: %w", err))
		}
	}
}

// Open replays the file at path. The file is opened when ranging starts and closed when
// it ends.
func Open(path string) iter.Seq2[llm.Delta, error] {
	return func(yield func(llm.Delta, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(llm.Delta{}, err)
			return
		}
		defer f.Close()
		for d, err := range Read(f) {
			if !yield(d, err) {
				return
			}
		}
	}
}

// Record passes deltas through unchanged, writing each to w in the format Read accepts.
// A failed write ends the sequence with that error.
func Record(w io.Writer, deltas iter.Seq2[llm.Delta, error]) iter.Seq2[llm.Delta, error] {
	return func(yield func(llm.Delta, error) bool) {
		enc := json.NewEncoder(w)
		for d, err := range deltas {
			if err == nil {
				if werr := enc.Encode(d); werr != nil {
					yield(llm.Delta{}, fmt.Errorf("record: %w", werr))
					return
				}
			}
			if !yield(d, err) || err != nil {
				return
			}
		}
	}
}
