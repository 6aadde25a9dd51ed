// Package fileutil expands command-line sources into census payload files.
//
// A directory argument is replaced by the payload files inside it (by
// extension, sorted, hidden directories skipped); files, URLs and "-" pass
// through unchanged:
//
//	sources, err := fileutil.ExpandSources(args, fileutil.ScanOptions{
//	    Extensions: fileutil.CensusExtensions,
//	    Recursive:  true,
//	})
package fileutil
