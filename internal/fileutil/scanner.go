package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// CensusExtensions are the payload file extensions picked up from directories.
var CensusExtensions = []string{".json", ".yaml", ".yml", ".md", ".markdown"}

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Pattern is a regex matched against filenames without extension (optional)
	Pattern string
	// Extensions limits matches to these extensions (case-insensitive)
	Extensions []string
	// Recursive descends into subdirectories
	Recursive bool
	// ExcludeDirs are directory names never entered; hidden directories are always skipped
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
}

// ScanDirectory returns the sorted paths of files in dir matching opts.
func ScanDirectory(dir string, opts ScanOptions) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var pattern *regexp.Regexp
	if opts.Pattern != "" {
		pattern, err = regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = true
	}

	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		excluded[name] = true
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", path, err)
		}
		if path == dir {
			return nil
		}

		if d.IsDir() {
			if excluded[d.Name()] || strings.HasPrefix(d.Name(), ".") || !opts.Recursive {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				rel, _ := filepath.Rel(dir, path)
				if strings.Count(rel, string(filepath.Separator))+1 >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		name := d.Name()
		if len(exts) > 0 && !exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		if pattern != nil && !pattern.MatchString(strings.TrimSuffix(name, filepath.Ext(name))) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// ExpandSources replaces every local directory in sources with the files
// ScanDirectory finds in it, keeping argument order. URLs, "-" and plain
// files pass through. A directory without payload files is an error.
func ExpandSources(sources []string, opts ScanOptions) ([]string, error) {
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		if src == "-" || strings.Contains(src, "://") {
			out = append(out, src)
			continue
		}

		info, err := os.Stat(src)
		if err != nil || !info.IsDir() {
			// Missing files are reported by the fetcher with the source name.
			out = append(out, src)
			continue
		}

		files, err := ScanDirectory(src, opts)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no census files found in %s", src)
		}
		out = append(out, files...)
	}
	return out, nil
}
