// Package persist loads and saves configuration documents.
//
// A Store pairs a document kind and file with its schema. Load decodes the
// file and expands symbolic paths. Save unmerges the tree against the
// Default Tree, collapses paths, prepends the schema header and writes the
// whole file at once. The watcher of the file is told to ignore the echo of
// every save before the write lands.
package persist

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/schema"
)

const defaultFileMode os.FileMode = 0644

// Ignorer is told the exact bytes of every write before the file is
// replaced, so that the resulting filesystem event can be recognized as an
// echo rather than an external edit.
type Ignorer interface {
	IgnoreNextEvent(content []byte)
}

// Revision describes one successful save.
type Revision struct {
	Kind       config.Kind
	Path       string
	Generation string
	Content    []byte
	SavedAt    time.Time
}

// Recorder keeps a history of saves.
type Recorder interface {
	Record(ctx context.Context, rev Revision) error
}

type options struct {
	ignorer  Ignorer
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*options)

// WithIgnorer sets the watcher handle notified before each write.
func WithIgnorer(i Ignorer) Option {
	return func(o *options) {
		o.ignorer = i
	}
}

// WithRecorder records every successful save.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Store loads and saves one document. It holds no tree: Load produces a new
// tree and Save consumes one, so callers keep sole ownership of their copy.
type Store[T any] struct {
	kind     config.Kind
	path     string
	schema   *schema.Schema[T]
	ignorer  Ignorer
	recorder Recorder
	logger   *slog.Logger
}

// New creates a Store for the document of the given kind at path.
func New[T any](kind config.Kind, path string, s *schema.Schema[T], opts ...Option) *Store[T] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Store[T]{
		kind:     kind,
		path:     path,
		schema:   s,
		ignorer:  o.ignorer,
		recorder: o.recorder,
		logger:   o.logger.With("kind", kind.String()),
	}
}

// Kind returns the document kind.
func (s *Store[T]) Kind() config.Kind { return s.kind }

// Path returns the file location.
func (s *Store[T]) Path() string { return s.path }

// Schema returns the document schema.
func (s *Store[T]) Schema() *schema.Schema[T] { return s.schema }

// Load reads and decodes the file. A missing file returns an informational
// NotFound error; callers proceed with an empty tree.
func (s *Store[T]) Load(ctx context.Context) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, tcerrors.ErrNotFound(s.path)
		}
		return nil, tcerrors.ErrRead(s.path, err)
	}

	t, err := s.Decode(data)
	if err != nil {
		return nil, tcerrors.ErrParse(s.path, err)
	}
	s.logger.Debug("loaded config", "path", s.path, "bytes", len(data))
	return t, nil
}

// Decode parses file content into a tree with expanded paths. Unknown keys
// are rejected so that a save never silently drops them.
func (s *Store[T]) Decode(data []byte) (*T, error) {
	t := new(T)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(t); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return s.schema.Expand(t), nil
}

// Encode renders the persisted form of t: the header line followed by the
// unmerged tree with collapsed paths. Field order follows the struct
// declarations and map keys are sorted, so equal trees encode identically.
// A tree with nothing but defaults encodes to the header alone.
func (s *Store[T]) Encode(t *T) ([]byte, error) {
	minimal := s.schema.Collapse(s.schema.Unmerge(t))

	var buf bytes.Buffer
	buf.WriteString(config.Header(s.kind))
	buf.WriteByte('\n')
	if s.schema.Equal(minimal, nil) {
		return buf.Bytes(), nil
	}

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(minimal); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save persists t. The content is fully assembled before anything touches
// the disk, and the file is replaced atomically. Recording the revision in
// history is best-effort and never fails the save.
func (s *Store[T]) Save(ctx context.Context, t *T) (string, error) {
	data, err := s.Encode(t)
	if err != nil {
		return "", tcerrors.ErrWrite(s.path, err)
	}

	generation := uuid.NewString()
	perm := fileMode(s.path, defaultFileMode)
	if err := replaceFile(s.path, data, perm, s.ignoreNextEvent); err != nil {
		return "", tcerrors.ErrWrite(s.path, err)
	}
	s.logger.Debug("saved config", "path", s.path, "generation", generation, "bytes", len(data))

	if s.recorder != nil {
		rev := Revision{
			Kind:       s.kind,
			Path:       s.path,
			Generation: generation,
			Content:    data,
			SavedAt:    time.Now(),
		}
		if err := s.recorder.Record(ctx, rev); err != nil {
			s.logger.Warn("failed to record revision", "path", s.path, "generation", generation, "error", err)
		}
	}
	return generation, nil
}

func (s *Store[T]) ignoreNextEvent(content []byte) {
	if s.ignorer != nil {
		s.ignorer.IgnoreNextEvent(content)
	}
}
