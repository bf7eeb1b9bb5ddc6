package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"voicekb/internal/domain"
)

// Collect resolves a mix of file paths, directories and glob patterns into a
// sorted, de-duplicated list of ingestable files. Directories are walked
// recursively. Files with other extensions are silently skipped, except when
// named explicitly, which is an error.
func Collect(args []string, allowedExts []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				if extAllowed(path, allowedExts) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
			}

		case err == nil:
			if !extAllowed(arg, allowedExts) {
				return nil, &domain.UnsupportedFormatError{Ext: strings.ToLower(filepath.Ext(arg))}
			}
			add(arg)

		default:
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", arg)
			}
			for _, match := range matches {
				if extAllowed(match, allowedExts) {
					add(match)
				}
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func extAllowed(path string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
