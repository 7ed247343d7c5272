package utils

import (
	"strings"
)

// Extension returns whatever follows the last dot of the final path segment,
// lowercased. It returns an empty string when the segment has no dot.
func Extension(link string) string {
	segment := LastSegment(link)
	idx := strings.LastIndexByte(segment, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(segment[idx+1:])
}

func HasExtension(link string, extensions ...string) bool {
	ext := Extension(link)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func LastSegment(link string) string {
	return link[strings.LastIndexByte(link, '/')+1:]
}

// BaseDir drops the final path segment.
func BaseDir(link string) string {
	idx := strings.LastIndexByte(link, '/')
	if idx < 0 {
		return link
	}
	return link[:idx]
}

// SwapExtension replaces a trailing ".from" with ".to". Paths without the
// suffix are returned unchanged.
func SwapExtension(path, from, to string) string {
	if !strings.HasSuffix(path, "."+from) {
		return path
	}
	return strings.TrimSuffix(path, from) + to
}
