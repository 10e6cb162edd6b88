package bank

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a bank source.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// SupportedMajor is the bank document major version this build reads.
const SupportedMajor = "v1"

// FormatForPath picks a Format from a file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads and validates the bank at path.
func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	b, err := Load(f, FormatForPath(path))
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Source == "" {
			le.Source = path
		}
		return nil, err
	}
	return b, nil
}

type questionDoc struct {
	ID         string            `json:"id"`
	Topic      string            `json:"topic"`
	Prompt     string            `json:"prompt"`
	Answer     string            `json:"answer"`
	Difficulty string            `json:"difficulty"`
	Type       string            `json:"type"`
	Choices    map[string]string `json:"choices"`
}

type bankDoc struct {
	Version   string        `json:"version"`
	Questions []questionDoc `json:"questions"`
}

type legacyDoc struct {
	Question string            `json:"domanda"`
	Answer   string            `json:"risposta"`
	Level    string            `json:"livello"`
	Topic    string            `json:"argomento"`
	Options  map[string]string `json:"opzioni"`
}

// Load reads a bank document from r. Three layouts are accepted: the
// versioned document with a questions array, a map from question id to
// record, and the flat legacy array.
func Load(r io.Reader, format Format) (*Bank, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("read: %w", err)}
	}

	value, err := decode(raw, format)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	sc, err := compiledSchemas()
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("compile schema: %w", err)}
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("normalize: %w", err)}
	}

	var records []QuestionRecord
	switch layout(value) {
	case layoutLegacy:
		if err := sc.legacy.Validate(value); err != nil {
			return nil, &LoadError{Err: fmt.Errorf("schema validation failed: %w", err)}
		}
		var docs []legacyDoc
		if err := json.Unmarshal(normalized, &docs); err != nil {
			return nil, &LoadError{Err: err}
		}
		records, err = fromLegacy(docs)
	case layoutKeyed:
		if err := sc.keyed.Validate(value); err != nil {
			return nil, &LoadError{Err: fmt.Errorf("schema validation failed: %w", err)}
		}
		var docs map[string]questionDoc
		if err := json.Unmarshal(normalized, &docs); err != nil {
			return nil, &LoadError{Err: err}
		}
		records, err = fromKeyed(docs)
	default:
		if err := sc.document.Validate(value); err != nil {
			return nil, &LoadError{Err: fmt.Errorf("schema validation failed: %w", err)}
		}
		var doc bankDoc
		if err := json.Unmarshal(normalized, &doc); err != nil {
			return nil, &LoadError{Err: err}
		}
		if err := checkVersion(doc.Version); err != nil {
			return nil, &LoadError{Err: err}
		}
		records, err = fromDocs(doc.Questions)
	}
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	return New(records)
}

type bankLayout int

const (
	layoutDocument bankLayout = iota
	layoutKeyed
	layoutLegacy
)

// layout tells the accepted layouts apart by shape. An object is a
// versioned document when it has a questions or version key and a keyed
// bank otherwise.
func layout(value any) bankLayout {
	switch v := value.(type) {
	case []any:
		return layoutLegacy
	case map[string]any:
		_, hasQuestions := v["questions"]
		_, hasVersion := v["version"]
		if !hasQuestions && !hasVersion {
			return layoutKeyed
		}
	}
	return layoutDocument
}

// decode parses raw into plain JSON values (maps, slices, float64, ...),
// which is what the schema validator expects.
func decode(raw []byte, format Format) (any, error) {
	var value any
	switch format {
	case FormatYAML:
		var y any
		if err := yaml.Unmarshal(raw, &y); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		b, err := json.Marshal(y)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		raw = b
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if dec.More() {
		return nil, errors.New("parse json: trailing data after document")
	}
	return value, nil
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid version %q", v)
	}
	if major := semver.Major(v); major != SupportedMajor {
		return fmt.Errorf("unsupported bank version %s (this build reads %s)", v, SupportedMajor)
	}
	return nil
}

func fromDocs(docs []questionDoc) ([]QuestionRecord, error) {
	records := make([]QuestionRecord, 0, len(docs))
	for _, d := range docs {
		diff, err := ParseDifficulty(d.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", d.ID, err)
		}
		q := QuestionRecord{
			ID:            d.ID,
			Topic:         d.Topic,
			Prompt:        d.Prompt,
			CorrectAnswer: d.Answer,
			Difficulty:    diff,
			Type:          QuestionType(d.Type),
			Choices:       d.Choices,
		}
		if err := finishRecord(&q); err != nil {
			return nil, err
		}
		records = append(records, q)
	}
	return records, nil
}

// fromKeyed builds records from the id→record map, in id order. A record
// that repeats its id must agree with the key.
func fromKeyed(docs map[string]questionDoc) ([]QuestionRecord, error) {
	ids := slices.Sorted(maps.Keys(docs))
	list := make([]questionDoc, 0, len(ids))
	for _, id := range ids {
		d := docs[id]
		if d.ID != "" && d.ID != id {
			return nil, fmt.Errorf("question %q: id field %q does not match its key", id, d.ID)
		}
		d.ID = id
		list = append(list, d)
	}
	return fromDocs(list)
}

func fromLegacy(docs []legacyDoc) ([]QuestionRecord, error) {
	records := make([]QuestionRecord, 0, len(docs))
	for i, d := range docs {
		diff, err := ParseDifficulty(d.Level)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		topic := d.Topic
		if topic == "" {
			topic = "general"
		}
		q := QuestionRecord{
			ID:            fmt.Sprintf("q%03d", i+1),
			Topic:         topic,
			Prompt:        d.Question,
			CorrectAnswer: d.Answer,
			Difficulty:    diff,
			Choices:       d.Options,
		}
		// Legacy options are shown to the learner but the reference answer
		// is free text, so these questions are graded as open.
		q.Type = TypeOpen
		records = append(records, q)
	}
	return records, nil
}

// finishRecord infers the question type and checks multiple-choice
// consistency.
func finishRecord(q *QuestionRecord) error {
	if q.Type == "" {
		q.Type = TypeOpen
		if len(q.Choices) > 0 {
			q.Type = TypeMultipleChoice
		}
	}
	if q.Type != TypeMultipleChoice {
		return nil
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("question %q: multiple choice needs at least 2 choices", q.ID)
	}
	if _, ok := q.Choices[q.CorrectAnswer]; ok {
		return nil
	}
	// Accept the option text as the answer and normalize to its key.
	for k, v := range q.Choices {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(q.CorrectAnswer)) {
			q.CorrectAnswer = k
			return nil
		}
	}
	return fmt.Errorf("question %q: answer %q is not one of the choices", q.ID, q.CorrectAnswer)
}
