package terminal

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ResolvePath resolves raw against cwd into a clean absolute path.
// A leading "~" expands to the home directory ("~name" to that user's home).
// Existence is not checked.
func ResolvePath(raw, cwd string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", ErrInvalidPath
	}

	if strings.HasPrefix(p, "~") {
		expanded, err := expandHome(p)
		if err != nil {
			return "", err
		}
		p = expanded
	}

	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	return filepath.Clean(p), nil
}

func expandHome(p string) (string, error) {
	name, rest, _ := strings.Cut(p[1:], string(filepath.Separator))

	var home string
	if name == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
		home = h
	} else {
		u, err := user.Lookup(name)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
		home = u.HomeDir
	}

	return filepath.Join(home, rest), nil
}

// HomeDir returns the invoking user's home directory, or the process
// working directory when no home is known.
func HomeDir() (string, error) {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h, nil
	}
	return os.Getwd()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
