package session

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/persist"
)

// Document is a kind-independent view of one store for one-shot commands.
// Every method reads the file afresh; edits are applied to the resolved
// tree and saved, so the file keeps only non-default values.
type Document interface {
	Kind() config.Kind
	Path() string

	// Show renders the file as it would be saved, or with resolved the
	// complete tree with defaults filled in and paths expanded.
	Show(ctx context.Context, resolved bool) ([]byte, error)

	// Get returns the resolved value at key.
	Get(ctx context.Context, key string) (any, error)

	// Set parses value as YAML into key and saves.
	Set(ctx context.Context, key, value string) (string, error)

	// Unset reverts key to its default and saves.
	Unset(ctx context.Context, key string) (string, error)

	// Keys lists every settable key.
	Keys() []string

	// Redundant lists keys whose value in the file equals the default.
	Redundant(ctx context.Context) ([]string, error)

	// Format rewrites the file in its minimal form. It reports whether the
	// content changed.
	Format(ctx context.Context) (changed bool, generation string, err error)

	// Restore validates content and saves it as the current document.
	Restore(ctx context.Context, content []byte) (string, error)
}

// Document returns the document of the given kind.
func (s *Session) Document(k config.Kind) (Document, error) {
	switch k {
	case config.KindWM:
		return document[config.Config]{s.WM}, nil
	case config.KindHotkeys:
		return document[config.Hotkeys]{s.Hotkeys}, nil
	case config.KindSettings:
		return document[config.Settings]{s.Settings}, nil
	default:
		return nil, fmt.Errorf("unknown document %q", k)
	}
}

type document[T any] struct {
	store *persist.Store[T]
}

func (d document[T]) Kind() config.Kind { return d.store.Kind() }
func (d document[T]) Path() string      { return d.store.Path() }
func (d document[T]) Keys() []string    { return d.store.Schema().Keys() }

// load returns the tree in the file; a missing file is an empty tree.
func (d document[T]) load(ctx context.Context) (*T, error) {
	t, err := d.store.Load(ctx)
	if tcerrors.IsNotFound(err) {
		return new(T), nil
	}
	return t, err
}

func (d document[T]) Show(ctx context.Context, resolved bool) ([]byte, error) {
	t, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return d.store.Encode(t)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.store.Schema().Resolve(t)); err != nil {
		return nil, fmt.Errorf("encode resolved %s: %w", d.Kind(), err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d document[T]) Get(ctx context.Context, key string) (any, error) {
	t, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	return d.store.Schema().Value(d.store.Schema().Resolve(t), key)
}

func (d document[T]) Set(ctx context.Context, key, value string) (string, error) {
	t, err := d.load(ctx)
	if err != nil {
		return "", err
	}
	updated, err := d.store.Schema().Set(d.store.Schema().Resolve(t), key, value)
	if err != nil {
		return "", err
	}
	return d.store.Save(ctx, updated)
}

func (d document[T]) Unset(ctx context.Context, key string) (string, error) {
	t, err := d.load(ctx)
	if err != nil {
		return "", err
	}
	// Unset on the file's tree, not the resolved one: a cleared record must
	// not keep siblings that were only present as defaults.
	updated, err := d.store.Schema().Unset(t, key)
	if err != nil {
		return "", err
	}
	return d.store.Save(ctx, updated)
}

func (d document[T]) Redundant(ctx context.Context) ([]string, error) {
	t, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	return d.store.Schema().Redundant(t), nil
}

func (d document[T]) Format(ctx context.Context) (bool, string, error) {
	t, err := d.load(ctx)
	if err != nil {
		return false, "", err
	}
	want, err := d.store.Encode(t)
	if err != nil {
		return false, "", err
	}
	have, _ := os.ReadFile(d.Path())
	if bytes.Equal(have, want) {
		return false, "", nil
	}
	gen, err := d.store.Save(ctx, t)
	return err == nil, gen, err
}

func (d document[T]) Restore(ctx context.Context, content []byte) (string, error) {
	t, err := d.store.Decode(content)
	if err != nil {
		return "", tcerrors.ErrParse(d.Path(), err)
	}
	return d.store.Save(ctx, t)
}
