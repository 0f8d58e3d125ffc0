// Package pathutil normalizes request URLs and filesystem paths.
package pathutil

import "strings"

// CleanURL removes a single trailing slash from url.
func CleanURL(url string) string {
	if !strings.HasSuffix(url, "/") {
		return url
	}
	return url[:len(url)-1]
}

// CleanPath strips every leading slash from path. A path made only of
// slashes becomes the empty string, so callers must check the result
// before using it to reach the filesystem.
func CleanPath(path string) string {
	for strings.HasPrefix(path, "/") {
		path = path[1:]
	}
	return path
}
