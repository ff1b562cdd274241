package which

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports that no candidate executable could be located.
var ErrNotFound = errors.New("not found")

// maxLinkHops bounds symlink resolution so a link cycle cannot loop forever.
const maxLinkHops = 40

// FindAnyInEnv searches the directories listed in PATH for the first of names.
func FindAnyInEnv(names ...string) (string, error) {
	pathList, ok := os.LookupEnv("PATH")
	if !ok {
		return "", fmt.Errorf("PATH: %w", ErrNotFound)
	}
	return FindAny(pathList, names...)
}

// FindAny walks pathList in order and, inside each directory, tries names in
// the order given. The first existing entry wins; symlinks are followed to
// their final target.
func FindAny(pathList string, names ...string) (string, error) {
	for _, dir := range filepath.SplitList(pathList) {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		for _, name := range names {
			if name == "" {
				continue
			}
			resolved, found, err := resolve(filepath.Join(abs, name))
			if err != nil {
				return "", err
			}
			if found {
				return resolved, nil
			}
		}
	}
	return "", fmt.Errorf("cannot find any of %s: %w", strings.Join(names, ", "), ErrNotFound)
}

// resolve follows path through any chain of symlinks. A missing starting entry
// is reported as not found; a chain that breaks part way is an error.
func resolve(path string) (string, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat %s: %w", path, err)
	}

	start := path
	for hops := 0; info.Mode()&fs.ModeSymlink != 0; hops++ {
		if hops >= maxLinkHops {
			return "", false, fmt.Errorf("resolve %s: too many levels of symbolic links", start)
		}
		dest, err := os.Readlink(path)
		if err != nil {
			return "", false, fmt.Errorf("resolve %s: %w", start, err)
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		path = filepath.Clean(dest)
		info, err = os.Lstat(path)
		if err != nil {
			return "", false, fmt.Errorf("resolve %s: %w", start, err)
		}
	}
	return path, true, nil
}
