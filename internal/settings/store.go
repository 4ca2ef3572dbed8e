package settings

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/extremofile"
	"go.uber.org/zap"
)

// ErrNoConfig is returned by Load when nothing was saved yet.
var ErrNoConfig = errors.New("no saved configuration")

// recordSize is the fixed length of a stored record. extremofile rewrites the
// files in place without truncating, so every write must cover the previous
// one. JSON is padded with trailing spaces, which decoding ignores.
const recordSize = 2048

type storage interface {
	Read() ([]byte, error)
	io.Writer
}

// Store persists the Configuration as JSON in a crash-safe file pair
// (main + backup, each checksummed). Saves overwrite the previous value.
type Store struct {
	mu         sync.Mutex
	storage    storage
	log        *zap.SugaredLogger
	recordSize int
}

// NewStore opens a store rooted at dir. It does not perform IO.
func NewStore(dir string, log *zap.SugaredLogger) *Store {
	return &Store{
		storage: extremofile.New(extremofile.Config{
			Dir:        dir,
			FilePrefix: "config.",
			DirPerm:    0755,
			FilePerm:   0644,
		}),
		log:        log,
		recordSize: recordSize,
	}
}

// Load reads the saved configuration. Keys missing from the file keep their
// Defaults() value.
func (s *Store) Load() (Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tbegin := time.Now()
	b, err := s.storage.Read()
	s.log.Debugw("settings storage read", "duration", time.Since(tbegin))
	if b == nil {
		if err != nil {
			return Configuration{}, errors.Annotate(err, "settings Load")
		}
		return Configuration{}, ErrNoConfig
	}
	if err != nil {
		// main copy was damaged, backup was used
		s.log.Warnw("settings ignore non-critical storage error", "error", err)
	}

	cfg := Defaults()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Configuration{}, errors.Annotate(err, "settings Load decode")
	}
	return cfg, nil
}

// Save validates and writes cfg.
func (s *Store) Save(cfg Configuration) error {
	if err := cfg.Validate(); err != nil {
		return errors.Annotate(err, "settings Save")
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return errors.Annotate(err, "settings Save encode")
	}
	if len(b) > s.recordSize {
		return errors.Errorf("settings Save: encoded size %d exceeds %d bytes", len(b), s.recordSize)
	}
	b = append(b, bytes.Repeat([]byte{' '}, s.recordSize-len(b))...)

	s.mu.Lock()
	defer s.mu.Unlock()

	tbegin := time.Now()
	_, err = s.storage.Write(b)
	s.log.Debugw("settings storage write", "duration", time.Since(tbegin))
	if err != nil && !extremofile.IsCritical(err) {
		// main copy written, only the backup failed
		s.log.Warnw("settings backup write failed", "error", err)
		return nil
	}
	return errors.Annotatef(err, "settings Save %s", cfg.City)
}
