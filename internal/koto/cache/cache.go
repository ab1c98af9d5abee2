// Package cache speeds up repeated parsing of the same Koto source by
// keeping a content-addressed, on-disk binary encoding of its AST: content
// in, github.com/dekarrin/rezi's EncBinary/DecBinary out. A cache miss or a
// decode error always falls back to parsing; this package can never change
// what a script evaluates to, only how fast its AST is produced.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/dekarrin/koto/internal/koto"
	"github.com/dekarrin/rezi"
)

// Key is the content hash used to address a cached AST.
type Key string

// KeyOf returns the Key for the given source text.
func KeyOf(source string) Key {
	sum := sha256.Sum256([]byte(source))
	return Key(hex.EncodeToString(sum[:]))
}

// Store is an on-disk directory of rezi-encoded AST blobs, one file per
// source hash.
type Store struct {
	dir string
}

// Open returns a Store backed by dir, creating it if necessary.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) pathFor(key Key) string {
	return filepath.Join(s.dir, string(key)+".koto.ast")
}

// Get decodes source's cached AST, if present. A missing or corrupt cache
// entry is reported via ok=false rather than an error, since either one is
// always recoverable by re-parsing.
func (s *Store) Get(source string) (node *koto.Node, ok bool) {
	data, err := os.ReadFile(s.pathFor(KeyOf(source)))
	if err != nil {
		return nil, false
	}

	n := &koto.Node{}
	if _, err := rezi.DecBinary(data, n); err != nil {
		return nil, false
	}

	return n, true
}

// Put stores the AST for source, overwriting any existing entry. Failing to
// write the cache is not fatal to a caller; Put's error is informational
// only (e.g. for logging) and callers are free to discard it.
func (s *Store) Put(source string, ast *koto.Node) error {
	data := rezi.EncBinary(ast)
	return os.WriteFile(s.pathFor(KeyOf(source)), data, 0660)
}

// ParseCached parses source, consulting and populating store along the way.
// If store is nil, it behaves exactly like koto.ParseSource.
func ParseCached(store *Store, source string) (*koto.Node, error) {
	if store != nil {
		if cached, ok := store.Get(source); ok {
			return cached, nil
		}
	}

	ast, err := koto.ParseSource(source)
	if err != nil {
		return nil, err
	}

	if store != nil {
		store.Put(source, ast)
	}

	return ast, nil
}
