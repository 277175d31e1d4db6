package fs

import (
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"sync"
)

// ChaosConfig controls fault injection probabilities.
//
// Each rate is a float64 from 0.0 (never) to 1.0 (always). The zero value
// disables all fault injection.
type ChaosConfig struct {
	// WriteFailRate controls how often [File.Write] fails entirely, writing
	// zero bytes and returning an error.
	WriteFailRate float64

	// PartialWriteRate controls how often [File.Write] writes only a prefix
	// of the requested bytes before reporting [io.ErrShortWrite]. This is
	// valid io.Writer behavior, not a hard failure, and exercises the same
	// "torn write" code paths a real crash would.
	PartialWriteRate float64

	// SyncFailRate controls how often [File.Sync] fails.
	SyncFailRate float64

	// Rand seeds the fault decisions. If nil, each Chaos creates its own
	// source with a fixed seed, so runs are deterministic.
	Rand *rand.Rand
}

var errChaosInjected = errors.New("fs: injected fault")

// Chaos wraps an [FS] and randomly injects I/O failures according to a
// [ChaosConfig]. It exists to exercise the write-ahead-log recovery paths in
// [pkg/storage] the way a real crash mid-write would.
type Chaos struct {
	fs     FS
	mu     sync.Mutex
	cfg    ChaosConfig
	rand   *rand.Rand
	active bool
}

// NewChaos wraps fs with fault injection governed by cfg. Injection starts
// disabled; call [Chaos.SetActive] to turn it on once setup writes have
// completed.
func NewChaos(fsys FS, cfg ChaosConfig) *Chaos {
	r := cfg.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(1, 2)) //nolint:gosec // deterministic test fault injection
	}

	return &Chaos{fs: fsys, cfg: cfg, rand: r}
}

// SetActive enables or disables fault injection.
func (c *Chaos) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
}

func (c *Chaos) roll(rate float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active || rate <= 0 {
		return false
	}

	return c.rand.Float64() < rate
}

func (c *Chaos) Open(path string) (File, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, c: c}, nil
}

func (c *Chaos) Create(path string) (File, error) {
	f, err := c.fs.Create(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, c: c}, nil
}

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	f, err := c.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, c: c}, nil
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	return c.fs.ReadFile(path)
}

func (c *Chaos) WriteFile(path string, data []byte, perm os.FileMode) error {
	return c.fs.WriteFile(path, data, perm)
}

func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	return c.fs.ReadDir(path)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	return c.fs.MkdirAll(path, perm)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	return c.fs.Stat(path)
}

func (c *Chaos) Exists(path string) (bool, error) {
	return c.fs.Exists(path)
}

func (c *Chaos) Remove(path string) error {
	return c.fs.Remove(path)
}

func (c *Chaos) RemoveAll(path string) error {
	return c.fs.RemoveAll(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	return c.fs.Rename(oldpath, newpath)
}

type chaosFile struct {
	File
	c *Chaos
}

func (f *chaosFile) Write(p []byte) (int, error) {
	if f.c.roll(f.c.cfg.WriteFailRate) {
		return 0, errChaosInjected
	}

	if f.c.roll(f.c.cfg.PartialWriteRate) && len(p) > 1 {
		n, err := f.File.Write(p[:len(p)/2])
		if err != nil {
			return n, err
		}

		return n, io.ErrShortWrite
	}

	return f.File.Write(p)
}

func (f *chaosFile) Sync() error {
	if f.c.roll(f.c.cfg.SyncFailRate) {
		return errChaosInjected
	}

	return f.File.Sync()
}

// Compile-time interface checks.
var (
	_ FS   = (*Chaos)(nil)
	_ File = (*chaosFile)(nil)
)
