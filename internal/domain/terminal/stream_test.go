package terminal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pumped struct {
	mu    sync.Mutex
	lines []line
}

func (p *pumped) emit(origin Origin, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line{origin: origin, text: text})
}

func (p *pumped) texts(origin Origin) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, l := range p.lines {
		if l.origin == origin {
			out = append(out, l.text)
		}
	}
	return out
}

func pump(t *testing.T, mux *Multiplexer, command string) (*pumped, int) {
	t.Helper()

	proc, err := NewShellRunner("").Spawn(context.Background(), command, t.TempDir())
	require.NoError(t, err)

	got := &pumped{}
	code, err := mux.Pump(proc, got.emit)
	require.NoError(t, err)
	return got, code
}

func TestPumpKeepsPerStreamOrder(t *testing.T) {
	got, code := pump(t, NewMultiplexer(nil, nil),
		`for i in 1 2 3 4 5; do echo out$i; echo err$i 1>&2; done`)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"out1\n", "out2\n", "out3\n", "out4\n", "out5\n"}, got.texts(OriginStdout))

	stderr := got.texts(OriginStderr)
	require.Len(t, stderr, 5)
	for i, text := range stderr {
		assert.Equal(t, red("err"+string(rune('1'+i))+"\n"), text)
	}
}

func TestPumpPartialLastLine(t *testing.T) {
	got, code := pump(t, NewMultiplexer(nil, nil), `printf 'a\nb'`)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"a\n", "b"}, got.texts(OriginStdout))
}

func TestPumpExitCode(t *testing.T) {
	got, code := pump(t, NewMultiplexer(nil, nil), `echo bye; exit 3`)

	assert.Equal(t, 3, code)
	assert.Equal(t, []string{"bye\n"}, got.texts(OriginStdout))
}

func TestPumpNoOutput(t *testing.T) {
	got, code := pump(t, NewMultiplexer(nil, nil), `true`)

	assert.Equal(t, 0, code)
	assert.Empty(t, got.texts(OriginStdout))
	assert.Empty(t, got.texts(OriginStderr))
}

func TestPumpLongLine(t *testing.T) {
	// longer than the line buffer, arrives in pieces
	got, code := pump(t, NewMultiplexer(nil, nil), `head -c 200000 /dev/zero | tr '\0' x; echo`)

	assert.Equal(t, 0, code)
	joined := strings.Join(got.texts(OriginStdout), "")
	assert.Equal(t, strings.Repeat("x", 200000)+"\n", joined)
}

func TestPumpLongMultibyteLine(t *testing.T) {
	// 3-byte runes; the line buffer fills mid-rune
	want := strings.Repeat("€", 30000) + "\n"
	path := filepath.Join(t.TempDir(), "euro.txt")
	require.NoError(t, os.WriteFile(path, []byte(want), 0o644))

	observer := &recordingObserver{}
	got, code := pump(t, NewMultiplexer(nil, observer), "cat '"+path+"'")

	assert.Equal(t, 0, code)
	assert.Equal(t, want, strings.Join(got.texts(OriginStdout), ""))
	assert.EqualValues(t, 0, observer.fallbacks.Load())
}

func TestPartialRune(t *testing.T) {
	euro := []byte("€")
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"empty", nil, 0},
		{"ascii", []byte("abc"), 0},
		{"complete", append([]byte("a"), euro...), 0},
		{"one of three", append([]byte("a"), euro[:1]...), 1},
		{"two of three", append([]byte("a"), euro[:2]...), 2},
		{"three of four", []byte("a\xf0\x9f\x98"), 3},
		{"complete four", []byte("a\xf0\x9f\x98\x80"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, partialRune(tt.in))
		})
	}
}

func TestPumpInvalidUTF8(t *testing.T) {
	observer := &recordingObserver{}
	got, code := pump(t, NewMultiplexer(nil, observer), `printf 'caf\351\n'`)

	assert.Equal(t, 0, code)
	stdout := got.texts(OriginStdout)
	require.Len(t, stdout, 1)
	assert.True(t, strings.HasPrefix(stdout[0], "caf"))
	assert.True(t, strings.HasSuffix(stdout[0], "\n"))
	assert.EqualValues(t, 1, observer.fallbacks.Load())
}
