package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"
)

// maxLineBytes bounds how much of an unterminated line is buffered before
// it is forwarded as a partial line.
const maxLineBytes = 64 * 1024

type line struct {
	origin Origin
	text   string
}

// Multiplexer forwards a process's stdout and stderr to a single consumer.
type Multiplexer struct {
	decoder  *Decoder
	observer Observer
}

// NewMultiplexer creates a multiplexer. A nil observer discards notifications.
func NewMultiplexer(decoder *Decoder, observer Observer) *Multiplexer {
	if decoder == nil {
		decoder = NewDecoder()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Multiplexer{decoder: decoder, observer: observer}
}

// Pump reads both output streams of proc concurrently and calls emit once
// per line, from a single goroutine. Lines of one stream keep their order;
// lines of different streams interleave in arrival order. Pump returns the
// exit code once both streams are drained and the process has exited.
func (m *Multiplexer) Pump(proc Process, emit func(Origin, string)) (int, error) {
	lines := make(chan line, 64)

	var wg sync.WaitGroup
	wg.Add(2)
	go m.read(proc.Stdout(), OriginStdout, lines, &wg)
	go m.read(proc.Stderr(), OriginStderr, lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()

	for l := range lines {
		emit(l.origin, l.text)
	}

	return proc.Wait()
}

func (m *Multiplexer) read(r io.ReadCloser, origin Origin, out chan<- line, wg *sync.WaitGroup) {
	defer wg.Done()
	defer r.Close()

	br := bufio.NewReaderSize(r, maxLineBytes)
	var carry []byte
	for {
		raw, err := br.ReadSlice('\n')
		chunk := raw
		if len(carry) > 0 {
			chunk = append(carry, raw...)
			carry = nil
		}
		// a split line must not cut a rune in half
		if errors.Is(err, bufio.ErrBufferFull) {
			if n := partialRune(chunk); n > 0 {
				carry = append([]byte(nil), chunk[len(chunk)-n:]...)
				chunk = chunk[:len(chunk)-n]
			}
		}
		if len(chunk) > 0 {
			out <- m.decode(chunk, origin)
		}
		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed):
			return
		default:
			out <- line{origin: OriginError, text: red(fmt.Sprintf("Error reading %s: %v", origin, err)) + "\n"}
			return
		}
	}
}

// partialRune returns the length of an incomplete UTF-8 sequence at the end
// of b, or 0.
func partialRune(b []byte) int {
	for n := 1; n < utf8.UTFMax && n <= len(b); n++ {
		tail := b[len(b)-n:]
		if utf8.RuneStart(tail[0]) {
			if utf8.FullRune(tail) {
				return 0
			}
			return n
		}
	}
	return 0
}

func (m *Multiplexer) decode(raw []byte, origin Origin) line {
	text, charset, err := m.decoder.Decode(raw)
	if err != nil {
		return line{origin: OriginError, text: red(fmt.Sprintf("Error decoding output: %v", err)) + "\n"}
	}
	if charset != utf8Charset {
		m.observer.DecodeFallback(charset)
	}
	m.observer.OutputLine(origin)

	if origin == OriginStderr {
		text = red(text)
	}
	return line{origin: origin, text: text}
}
