package modelregistry

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed models.yml
var defaultModelsYAML []byte

var (
	ErrEmptyCatalog   = errors.New("empty_model_catalog")
	ErrInvalidModelID = errors.New("invalid_model_id")
	ErrDuplicateModel = errors.New("duplicate_model_id")
	ErrMissingAPIName = errors.New("missing_model_api_name")
)

// Model maps a public integer id to the provider's model identifier.
type Model struct {
	ID         int    `yaml:"id" mapstructure:"id" json:"model_id"`
	APIName    string `yaml:"api_name" mapstructure:"api_name" json:"-"`
	PrettyName string `yaml:"pretty_name" mapstructure:"pretty_name" json:"pretty_name"`
}

// Summary is the client-facing view; api names stay server side.
type Summary struct {
	ID         int    `json:"model_id"`
	PrettyName string `json:"pretty_name"`
}

type Registry interface {
	Lookup(id int) (Model, bool)
	List() []Summary
}

type catalog struct {
	byID    map[int]Model
	ordered []Summary
}

type document struct {
	Models []Model `yaml:"models" mapstructure:"models"`
}

// DefaultModels returns the built-in catalog.
func DefaultModels() ([]Model, error) {
	var doc document
	if err := yaml.Unmarshal(defaultModelsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse default models: %w", err)
	}
	return doc.Models, nil
}

func newCatalog(models []Model) (*catalog, error) {
	if len(models) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &catalog{byID: make(map[int]Model, len(models))}
	for _, m := range models {
		if m.ID <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidModelID, m.ID)
		}
		if _, exists := c.byID[m.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateModel, m.ID)
		}
		m.APIName = strings.TrimSpace(m.APIName)
		if m.APIName == "" {
			return nil, fmt.Errorf("%w: %d", ErrMissingAPIName, m.ID)
		}
		m.PrettyName = strings.TrimSpace(m.PrettyName)
		if m.PrettyName == "" {
			m.PrettyName = m.APIName
		}
		c.byID[m.ID] = m
		c.ordered = append(c.ordered, Summary{ID: m.ID, PrettyName: m.PrettyName})
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].ID < c.ordered[j].ID })
	return c, nil
}

// Static is an immutable registry, mostly for tests.
type Static struct {
	c *catalog
}

func NewStatic(models ...Model) (*Static, error) {
	c, err := newCatalog(models)
	if err != nil {
		return nil, err
	}
	return &Static{c: c}, nil
}

func (s *Static) Lookup(id int) (Model, bool) {
	m, ok := s.c.byID[id]
	return m, ok
}

func (s *Static) List() []Summary {
	return append([]Summary(nil), s.c.ordered...)
}
