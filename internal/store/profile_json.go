package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/abhisek/studyloop/internal/profile"
)

// JSONProfileStore keeps every profile in a single JSON document keyed by
// student id:
//
//	{"alice": {"mastery": {"fractions": {...}}, "attempts": [...]}}
type JSONProfileStore struct {
	path string
	mu   sync.Mutex
}

var _ profile.Store = (*JSONProfileStore)(nil)

// NewJSONProfileStore returns a store backed by the file at path. The file
// is created on the first save.
func NewJSONProfileStore(path string) *JSONProfileStore {
	return &JSONProfileStore{path: path}
}

type jsonProfile struct {
	Mastery  map[string]profile.TopicMastery `json:"mastery"`
	Attempts []profile.AttemptRecord         `json:"attempts"`
}

// Load returns the stored profile, or an empty one for an unknown student.
func (s *JSONProfileStore) Load(ctx context.Context, studentID string) (*profile.StudentProfile, error) {
	doc, err := s.read()
	if err != nil {
		return nil, &profile.PersistenceError{Op: "load", StudentID: studentID, Err: err}
	}

	p := profile.New(studentID)
	entry, ok := doc[studentID]
	if !ok {
		return p, nil
	}
	for topic, m := range entry.Mastery {
		if m.Topic == "" {
			m.Topic = topic
		}
		p.Mastery[topic] = m
	}
	if len(entry.Attempts) > 0 {
		p.Attempts = entry.Attempts
	}
	return p, nil
}

// Save replaces p's entry in the document. The document is rewritten to a
// temporary file and renamed into place.
func (s *JSONProfileStore) Save(ctx context.Context, p *profile.StudentProfile) error {
	err := s.update(ctx, func(doc map[string]jsonProfile) {
		mastery := p.Mastery
		if mastery == nil {
			mastery = map[string]profile.TopicMastery{}
		}
		attempts := p.Attempts
		if attempts == nil {
			attempts = []profile.AttemptRecord{}
		}
		doc[p.StudentID] = jsonProfile{Mastery: mastery, Attempts: attempts}
	})
	if err != nil {
		return &profile.PersistenceError{Op: "save", StudentID: p.StudentID, Err: err}
	}
	return nil
}

// Delete removes a student's entry.
func (s *JSONProfileStore) Delete(ctx context.Context, studentID string) error {
	err := s.update(ctx, func(doc map[string]jsonProfile) {
		delete(doc, studentID)
	})
	if err != nil {
		return &profile.PersistenceError{Op: "delete", StudentID: studentID, Err: err}
	}
	return nil
}

// StudentIDs lists every stored student, sorted.
func (s *JSONProfileStore) StudentIDs(ctx context.Context) ([]string, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(doc)), nil
}

func (s *JSONProfileStore) update(ctx context.Context, fn func(map[string]jsonProfile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := EnsureDir(s.path); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	release, err := acquireLock(ctx, s.path)
	if err != nil {
		return err
	}
	defer release()

	doc, err := s.read()
	if err != nil {
		return err
	}
	fn(doc)
	return s.write(doc)
}

func (s *JSONProfileStore) read() (map[string]jsonProfile, error) {
	doc := make(map[string]jsonProfile)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *JSONProfileStore) write(doc map[string]jsonProfile) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
