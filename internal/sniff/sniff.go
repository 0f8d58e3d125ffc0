// Package sniff classifies file content as text or binary.
package sniff

import (
	"context"

	mfs "github.com/CageChen/dirserve/internal/fs"
	"github.com/gabriel-vasile/mimetype"
)

// SampleSize is how many leading bytes callers usually read for a sample.
const SampleSize = 512

// Classifier decides whether a byte sample of a file with the given total
// size is probably text.
type Classifier interface {
	IsText(sample []byte, size int64) bool
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(sample []byte, size int64) bool

// IsText calls f.
func (f ClassifierFunc) IsText(sample []byte, size int64) bool { return f(sample, size) }

// MIMEClassifier treats a sample as text when mimetype detects text/plain
// or a type that descends from it (JSON, HTML, CSV and so on).
type MIMEClassifier struct{}

// IsText implements Classifier.
func (MIMEClassifier) IsText(sample []byte, size int64) bool {
	if size >= 0 && int64(len(sample)) > size {
		sample = sample[:size]
	}
	if len(sample) == 0 {
		return true
	}
	for m := mimetype.Detect(sample); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Sniffer answers IsBinary queries for files reachable through a FileSystem.
type Sniffer struct {
	fs         mfs.FileSystem
	classifier Classifier
}

// New creates a Sniffer. A nil classifier selects MIMEClassifier.
func New(fs mfs.FileSystem, classifier Classifier) *Sniffer {
	if classifier == nil {
		classifier = MIMEClassifier{}
	}
	return &Sniffer{fs: fs, classifier: classifier}
}

// IsBinary reports whether the file at filePath, represented by sample,
// is binary. The file size comes from an lstat of filePath; a failed lstat
// is returned as a *fs.FilesystemError.
func (s *Sniffer) IsBinary(ctx context.Context, filePath string, sample []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := s.fs.Lstat(filePath)
	if err != nil {
		return false, mfs.Wrap("lstat", filePath, err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return !s.classifier.IsText(sample, info.Size), nil
}
