// Package catalog loads the ordered question list a check-in walks through.
// It checks structure only; scoring rule contents are taken as given.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

//go:embed questions.yaml
var defaultQuestions []byte

type fileQuestion struct {
	ID      string                   `yaml:"id" validate:"required"`
	Title   string                   `yaml:"title" validate:"required"`
	Topic   string                   `yaml:"topic" validate:"required,topic"`
	Kind    string                   `yaml:"kind" validate:"required,oneof=scale choice"`
	Options []string                 `yaml:"options,omitempty" validate:"required_if=Kind choice"`
	Enabled *bool                    `yaml:"enabled"`
	Scoring *checkin.ScoringRuleSpec `yaml:"scoring,omitempty"`
}

type file struct {
	Questions []fileQuestion `yaml:"questions" validate:"required,min=1,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("topic", func(fl validator.FieldLevel) bool {
		_, ok := checkin.ParseTopic(fl.Field().String())
		return ok
	})
	return v
}

// Catalog is the ordered question list. Enable flags and order may change at
// runtime; readers always receive copies.
type Catalog struct {
	mu        sync.RWMutex
	questions []checkin.Question
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultQuestions)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid catalog: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	qs := make([]checkin.Question, 0, len(f.Questions))
	for _, fq := range f.Questions {
		q := checkin.Question{
			ID:      fq.ID,
			Title:   fq.Title,
			Topic:   checkin.Topic(fq.Topic),
			Kind:    checkin.InputKind(fq.Kind),
			Options: fq.Options,
			Enabled: fq.Enabled == nil || *fq.Enabled,
		}
		if fq.Scoring != nil {
			rule := fq.Scoring.Rule()
			q.Scoring = &rule
		}
		qs = append(qs, q)
	}
	return &Catalog{questions: qs}, nil
}

// New builds a catalog from questions already in memory.
func New(qs []checkin.Question) *Catalog {
	return &Catalog{questions: append([]checkin.Question(nil), qs...)}
}

// All returns every question, enabled or not, in order.
func (c *Catalog) All() []checkin.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]checkin.Question(nil), c.questions...)
}

// Enabled returns the questions a new session walks through.
func (c *Catalog) Enabled() []checkin.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]checkin.Question, 0, len(c.questions))
	for _, q := range c.questions {
		if q.Enabled {
			out = append(out, q)
		}
	}
	return out
}

// Question returns the first question with id.
func (c *Catalog) Question(id string) (checkin.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.questions {
		if q.ID == id {
			return q, true
		}
	}
	return checkin.Question{}, false
}

// SetEnabled toggles a question for future sessions.
func (c *Catalog) SetEnabled(id string, enabled bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.questions {
		if c.questions[i].ID == id {
			c.questions[i].Enabled = enabled
			return true
		}
	}
	return false
}

// Reorder moves the listed questions to the front in the given order; the
// rest keep their relative order. Unknown ids abort without changes.
func (c *Catalog) Reorder(order []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos := make(map[string]int, len(c.questions))
	for i, q := range c.questions {
		if _, dup := pos[q.ID]; !dup {
			pos[q.ID] = i
		}
	}
	taken := make(map[int]bool, len(order))
	out := make([]checkin.Question, 0, len(c.questions))
	for _, id := range order {
		i, ok := pos[id]
		if !ok {
			return false
		}
		if taken[i] {
			continue
		}
		taken[i] = true
		out = append(out, c.questions[i])
	}
	for i, q := range c.questions {
		if !taken[i] {
			out = append(out, q)
		}
	}
	c.questions = out
	return true
}

// Marshal renders the catalog in the same YAML layout Parse reads.
func (c *Catalog) Marshal() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := file{Questions: make([]fileQuestion, 0, len(c.questions))}
	for _, q := range c.questions {
		enabled := q.Enabled
		fq := fileQuestion{
			ID:      q.ID,
			Title:   q.Title,
			Topic:   string(q.Topic),
			Kind:    string(q.Kind),
			Options: q.Options,
			Enabled: &enabled,
		}
		if q.Scoring != nil {
			spec := q.Scoring.Spec()
			fq.Scoring = &spec
		}
		f.Questions = append(f.Questions, fq)
	}
	return yaml.Marshal(f)
}
