package signature

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parchment-labs/docproc/internal/common"
	"github.com/parchment-labs/docproc/internal/document"
)

// storeVersion is the on-disk format version tag.
const storeVersion = "1.0"

// RuleSet is a learned field snapshot or pattern set for one fingerprint,
// optionally scoped to a sender. Owned exclusively by the Store.
type RuleSet struct {
	Rules     document.ExtractedFields `json:"rules"`
	Version   string                   `json:"version"`
	LearnedAt time.Time                `json:"learned_at"`
}

// storeFile is the persisted shape: two mappings plus a version tag.
type storeFile struct {
	Signatures     map[string]RuleSet            `json:"signatures"`
	SenderPatterns map[string]map[string]RuleSet `json:"sender_patterns"`
	Version        string                        `json:"version"`
}

// Store maps fingerprints (optionally per sender) to learned rule sets.
// It is the single shared mutable resource in the pipeline: Learn calls
// are serialized, reads see either the old or the new RuleSet atomically,
// and Load/Save exclude everything else for their duration.
type Store struct {
	mu             sync.RWMutex
	signatures     map[string]RuleSet
	senderPatterns map[string]map[string]RuleSet
	version        string
	logger         *slog.Logger
}

// NewStore creates an empty in-memory store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		signatures:     make(map[string]RuleSet),
		senderPatterns: make(map[string]map[string]RuleSet),
		version:        storeVersion,
		logger:         logger,
	}
}

// GetRules returns the learned RuleSet for a fingerprint. A sender-specific
// entry takes precedence; otherwise the global entry is used. ok is false
// when neither exists.
func (s *Store) GetRules(fingerprint, sender string) (RuleSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sender != "" {
		if byFp, ok := s.senderPatterns[sender]; ok {
			if rs, ok := byFp[fingerprint]; ok {
				return rs, true
			}
		}
	}
	rs, ok := s.signatures[fingerprint]
	return rs, ok
}

// Learn overwrites the stored RuleSet for (fingerprint, sender) with a
// snapshot of fields, stamped with the current time and store version.
// Last write wins; there is no merge. Idempotent per exact argument pair.
func (s *Store) Learn(fingerprint string, fields document.ExtractedFields, sender string) {
	rs := RuleSet{
		Rules:     fields.Clone(),
		Version:   storeVersion,
		LearnedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sender != "" {
		byFp, ok := s.senderPatterns[sender]
		if !ok {
			byFp = make(map[string]RuleSet)
			s.senderPatterns[sender] = byFp
		}
		byFp[fingerprint] = rs
	} else {
		s.signatures[fingerprint] = rs
	}
	s.logger.Info("signature.store.learn",
		"fingerprint", fingerprint,
		"sender", sender,
		"fields", len(fields),
	)
}

// Len reports the number of learned entries (global plus per-sender).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.signatures)
	for _, byFp := range s.senderPatterns {
		n += len(byFp)
	}
	return n
}

// Load replaces the store content from the file at path. A missing file is
// not an error: the store stays empty. A present-but-unreadable file is a
// fatal configuration error; learned history must never be discarded
// silently.
func (s *Store) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("signature.store.load.empty", "path", path)
			return nil
		}
		return common.NewAppError("STORE_LOAD", fmt.Sprintf("reading %s", path), common.ErrCorruptStore)
	}

	var f storeFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return common.NewAppError("STORE_LOAD", fmt.Sprintf("parsing %s: %v", path, err), common.ErrCorruptStore)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.signatures = f.Signatures
	if s.signatures == nil {
		s.signatures = make(map[string]RuleSet)
	}
	s.senderPatterns = f.SenderPatterns
	if s.senderPatterns == nil {
		s.senderPatterns = make(map[string]map[string]RuleSet)
	}
	if f.Version != "" {
		s.version = f.Version
	}
	s.logger.Info("signature.store.load.ok",
		"path", path,
		"signatures", len(s.signatures),
		"senders", len(s.senderPatterns),
	)
	return nil
}

// Save serializes the store to the file at path, creating parent
// directories as needed. Persistence is explicit: callers decide when
// learned state is flushed, not every mutation.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	f := storeFile{
		Signatures:     s.signatures,
		SenderPatterns: s.senderPatterns,
		Version:        s.version,
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode signature store: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write signature store: %w", err)
	}
	s.logger.Info("signature.store.save.ok", "path", path, "bytes", len(raw))
	return nil
}
