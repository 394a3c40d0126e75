package terminal

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Result is the outcome of a builtin command.
type Result struct {
	Output string
	Origin Origin
	// Dir is the new working directory, empty when unchanged.
	Dir string
}

// interactiveCommands need a raw terminal, which a line-streaming pipe cannot emulate.
var interactiveCommands = map[string]bool{
	"vi":   true,
	"vim":  true,
	"nano": true,
	"less": true,
	"more": true,
	"top":  true,
	"htop": true,
}

type builtinFunc func(args, cwd string) Result

// Builtins interprets commands that depend on or mutate session state.
type Builtins struct {
	handlers map[string]builtinFunc
}

// NewBuiltins creates the builtin dispatcher
func NewBuiltins() *Builtins {
	b := &Builtins{}
	b.handlers = map[string]builtinFunc{
		"cd":    b.cd,
		"pwd":   b.pwd,
		"clear": b.clear,
		"mkdir": b.mkdir,
	}
	return b
}

// Dispatch runs command as a builtin. The second return value is false when
// the command must be handed to a process instead.
func (b *Builtins) Dispatch(command, cwd string) (Result, bool) {
	name, args := splitCommand(command)

	if interactiveCommands[name] {
		return Result{
			Output: yellow(fmt.Sprintf("Interactive command '%s' is not supported in this terminal", name)) + "\n",
			Origin: OriginSystem,
		}, true
	}

	handler, ok := b.handlers[name]
	if !ok {
		return Result{}, false
	}
	return handler(args, cwd), true
}

func (b *Builtins) cd(args, cwd string) Result {
	target := unquote(args)

	var dir string
	if target == "" {
		home, err := HomeDir()
		if err != nil {
			return errorResult(fmt.Sprintf("cd: %v", err))
		}
		dir = home
	} else {
		resolved, err := ResolvePath(target, cwd)
		if err != nil {
			return errorResult(fmt.Sprintf("cd: %s: No such directory", target))
		}
		dir = resolved
	}

	if !isDir(dir) {
		return errorResult(fmt.Sprintf("cd: %s: No such directory", target))
	}

	return Result{
		Output: fmt.Sprintf("Changed directory to: %s\n", dir),
		Origin: OriginSystem,
		Dir:    dir,
	}
}

func (b *Builtins) pwd(_, cwd string) Result {
	return Result{Output: cwd + "\n", Origin: OriginStdout}
}

func (b *Builtins) clear(_, _ string) Result {
	return Result{Output: ClearScreen, Origin: OriginSystem}
}

func (b *Builtins) mkdir(args, cwd string) Result {
	words, err := shellwords.Parse(args)
	if err != nil {
		return errorResult(fmt.Sprintf("mkdir: %v", err))
	}

	var targets []string
	for _, w := range words {
		// always recursive
		if w == "-p" || w == "--parents" {
			continue
		}
		targets = append(targets, w)
	}
	if len(targets) == 0 {
		return errorResult("mkdir: missing operand")
	}

	var out strings.Builder
	failed := false
	for _, target := range targets {
		dir, err := ResolvePath(target, cwd)
		if err == nil {
			err = os.MkdirAll(dir, 0o755)
		}
		if err != nil {
			failed = true
			out.WriteString(red(fmt.Sprintf("mkdir: %s: %v", target, unwrapPathError(err))) + "\n")
			continue
		}
		fmt.Fprintf(&out, "Directory created: %s\n", dir)
	}

	origin := OriginStdout
	if failed {
		origin = OriginError
	}
	return Result{Output: out.String(), Origin: origin}
}

func errorResult(msg string) Result {
	return Result{Output: red(msg) + "\n", Origin: OriginError}
}

// splitCommand returns the first word and the trimmed remainder.
func splitCommand(command string) (string, string) {
	command = strings.TrimSpace(command)
	i := strings.IndexAny(command, " \t")
	if i < 0 {
		return command, ""
	}
	return command[:i], strings.TrimSpace(command[i+1:])
}

func unquote(s string) string {
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func unwrapPathError(err error) error {
	if pe, ok := err.(*os.PathError); ok {
		return pe.Err
	}
	return err
}
