package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// StoreIOError reports a backup or write failure during a knowledge base
// operation. The previously persisted document is guaranteed untouched.
type StoreIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("knowledge base %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreIOError) Unwrap() error { return e.Err }

// SchemaError reports an existing document that does not parse as a
// knowledge base. It is distinct from a missing document, which is
// initialized fresh.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("knowledge base at %s is not a valid document: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// KnowledgeBaseStore owns the persisted rule ledger. It is the only
// component that writes rules; everything else proposes.
type KnowledgeBaseStore interface {
	// Load returns the persisted document, or a freshly initialized one
	// when no document exists yet.
	Load() (*models.KnowledgeBase, error)

	// Init persists a fresh document if none exists and returns the
	// document now on disk.
	Init() (*models.KnowledgeBase, error)

	// Update backs up the existing document, routes each new rule into a
	// category by its description, bumps the version, and atomically
	// replaces the document. Rules whose IDs already exist are skipped.
	Update(newRules []models.RuleDefinition) (*models.KnowledgeBase, error)

	// Path returns the configured document location.
	Path() string

	// Backups lists backup artifacts next to the document, oldest first.
	Backups() ([]string, error)
}

type fileKnowledgeBase struct {
	path string
}

// NewKnowledgeBaseStore creates a file-backed store at the given path.
func NewKnowledgeBaseStore(path string) KnowledgeBaseStore {
	return &fileKnowledgeBase{path: path}
}

func (s *fileKnowledgeBase) Path() string { return s.path }

func (s *fileKnowledgeBase) Load() (*models.KnowledgeBase, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewKnowledgeBase(), nil
		}
		return nil, &StoreIOError{Op: "read", Path: s.path, Err: err}
	}

	var kb models.KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, &SchemaError{Path: s.path, Err: err}
	}
	if kb.Version == "" {
		return nil, &SchemaError{Path: s.path, Err: errors.New("missing version field")}
	}
	return &kb, nil
}

func (s *fileKnowledgeBase) Init() (*models.KnowledgeBase, error) {
	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}
	kb := models.NewKnowledgeBase()
	if err := s.writeAtomic(kb); err != nil {
		return nil, err
	}
	return kb, nil
}

func (s *fileKnowledgeBase) Update(newRules []models.RuleDefinition) (*models.KnowledgeBase, error) {
	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return nil, &StoreIOError{Op: "lock", Path: s.path, Err: err}
	}
	defer func() { _ = unlock() }()

	// Backup before any mutation, including before attempting to parse:
	// an unreadable document must never be lost to a rewrite.
	if _, err := os.Stat(s.path); err == nil {
		if err := s.backup(); err != nil {
			return nil, err
		}
	}

	kb, err := s.Load()
	if err != nil {
		return nil, err
	}

	for _, rule := range newRules {
		if kb.HasRule(rule.RuleID) {
			continue
		}
		kb.AppendRule(categoryFor(rule.Description), rule)
	}

	kb.LastUpdated = time.Now().UTC()
	kb.Version = bumpVersion(kb.Version)

	if err := s.writeAtomic(kb); err != nil {
		return nil, err
	}
	return kb, nil
}

func (s *fileKnowledgeBase) Backups() ([]string, error) {
	matches, err := filepath.Glob(s.backupGlob())
	if err != nil {
		return nil, &StoreIOError{Op: "list backups", Path: s.path, Err: err}
	}
	sort.Strings(matches)
	return matches, nil
}

// backup copies the current document byte-for-byte to a timestamped
// sibling. Collisions within the same second get a numeric suffix so two
// updates always leave two distinct artifacts.
func (s *fileKnowledgeBase) backup() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &StoreIOError{Op: "backup", Path: s.path, Err: err}
	}

	ext := filepath.Ext(s.path)
	base := s.backupName(time.Now())
	stem := strings.TrimSuffix(base, ext)
	target := base
	for i := 2; ; i++ {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		target = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}

	if err := os.WriteFile(target, data, 0o600); err != nil {
		return &StoreIOError{Op: "backup", Path: target, Err: err}
	}
	return nil
}

func (s *fileKnowledgeBase) backupName(now time.Time) string {
	ext := filepath.Ext(s.path)
	stem := strings.TrimSuffix(s.path, ext)
	return fmt.Sprintf("%s.backup_%s%s", stem, now.Format("20060102_150405"), ext)
}

func (s *fileKnowledgeBase) backupGlob() string {
	ext := filepath.Ext(s.path)
	stem := strings.TrimSuffix(s.path, ext)
	return stem + ".backup_*" + ext
}

// writeAtomic replaces the document via write-to-temp-then-rename so a
// crash mid-write can never leave a half-written document visible.
func (s *fileKnowledgeBase) writeAtomic(kb *models.KnowledgeBase) error {
	data, err := yaml.Marshal(kb)
	if err != nil {
		return &StoreIOError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StoreIOError{Op: "write", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".kb-*.yaml")
	if err != nil {
		return &StoreIOError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StoreIOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StoreIOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StoreIOError{Op: "write", Path: tmpName, Err: err}
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &StoreIOError{Op: "replace", Path: s.path, Err: err}
	}
	return nil
}

// Category routing keywords, checked in order: a description mentioning
// both filesystem and scheduling concerns files under the filesystem
// category because that list is checked first.
var categoryKeywords = []struct {
	category models.RuleCategory
	keywords []string
}{
	{models.CategoryLustre, []string{"lfs", "lustre", "stripe", "striping"}},
	{models.CategorySlurm, []string{"sbatch", "resource", "memory", "cpu", "time"}},
}

func categoryFor(description string) models.RuleCategory {
	lower := strings.ToLower(description)
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(lower, kw) {
				return ck.category
			}
		}
	}
	return models.CategoryGeneral
}

// bumpVersion increments the patch component. Versions that do not parse
// reset to 1.0.1 so the sequence stays monotonic from there.
func bumpVersion(v string) string {
	parts := strings.Split(v, ".")
	if len(parts) == 3 {
		if patch, err := strconv.Atoi(parts[2]); err == nil {
			parts[2] = strconv.Itoa(patch + 1)
			return strings.Join(parts, ".")
		}
	}
	return "1.0.1"
}
