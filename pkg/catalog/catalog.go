package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/validation"
)

//go:embed builtin/*.yaml
var builtinFiles embed.FS

// BuiltinSource names the source of templates shipped with the binary.
const BuiltinSource = "builtin"

// ErrNotFound is returned when a template id is not in the catalog.
var ErrNotFound = errors.New("catalog: template not found")

// Builtin exposes the embedded template documents.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtinFiles, "builtin")
	if err != nil {
		return builtinFiles
	}
	return sub
}

// DocumentError reports why one template file was rejected.
type DocumentError struct {
	Path     string
	Problems []string
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("catalog: %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Catalog holds template records loaded from one or more sources. Reloading
// a source swaps its records atomically: either every document of the
// source is accepted or the previous records stay in place.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]model.TemplateRecord
	sources   map[string]string
	logger    *zap.Logger
}

// New returns an empty catalog.
func New(options ...Option) *Catalog {
	c := &Catalog{
		templates: make(map[string]model.TemplateRecord),
		sources:   make(map[string]string),
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// NewWithBuiltin returns a catalog preloaded with the embedded templates.
func NewWithBuiltin(options ...Option) (*Catalog, error) {
	c := New(options...)
	if _, err := c.LoadFS(BuiltinSource, Builtin()); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFS parses every .yaml, .yml and .json document in fsys and replaces
// the records previously loaded from source. It returns the loaded ids.
func (c *Catalog) LoadFS(source string, fsys fs.FS) ([]string, error) {
	records, err := readDocuments(fsys)
	if err != nil {
		c.logger.Warn("template source rejected", zap.String("source", source), zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, from := range c.sources {
		if from == source {
			delete(c.templates, id)
			delete(c.sources, id)
		}
	}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		if previous, exists := c.sources[record.ID]; exists {
			c.logger.Info("template overridden",
				zap.String("id", record.ID),
				zap.String("previous_source", previous),
				zap.String("source", source),
			)
		}
		c.templates[record.ID] = record
		c.sources[record.ID] = source
		ids = append(ids, record.ID)
	}
	sort.Strings(ids)

	c.logger.Info("templates loaded", zap.String("source", source), zap.Int("count", len(ids)))
	return ids, nil
}

// Add validates and stores a single record under source.
func (c *Catalog) Add(source string, record model.TemplateRecord) error {
	if err := validation.ValidateTemplate(record); err != nil {
		return err
	}
	record = normalise(record)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[record.ID] = record
	c.sources[record.ID] = source
	return nil
}

// Get returns the record for id.
func (c *Catalog) Get(id string) (model.TemplateRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.templates[id]
	return record, ok
}

// Template returns a copy of the record for id or ErrNotFound.
func (c *Catalog) Template(_ context.Context, id string) (*model.TemplateRecord, error) {
	record, ok := c.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &record, nil
}

// Templates lists every record sorted by id.
func (c *Catalog) Templates(_ context.Context) ([]model.TemplateRecord, error) {
	return c.List(), nil
}

// List returns every record sorted by id.
func (c *Catalog) List() []model.TemplateRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.TemplateRecord, 0, len(c.templates))
	for _, record := range c.templates {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Source reports where the record for id came from.
func (c *Catalog) Source(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	source, ok := c.sources[id]
	return source, ok
}

// ParseDocument validates a raw template document against the template
// schema, decodes it by extension and checks its structure.
func ParseDocument(name string, raw []byte) (model.TemplateRecord, error) {
	schema := validation.ValidateTemplateDocument(raw)
	if !schema.Valid {
		problems := make([]string, 0, len(schema.Issues))
		for _, issue := range schema.Issues {
			if issue.Field != "" {
				problems = append(problems, issue.Field+": "+issue.Message)
				continue
			}
			problems = append(problems, issue.Message)
		}
		return model.TemplateRecord{}, &DocumentError{Path: name, Problems: problems}
	}

	var record model.TemplateRecord
	var err error
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		err = json.Unmarshal(raw, &record)
	default:
		err = yaml.Unmarshal(raw, &record)
	}
	if err != nil {
		return model.TemplateRecord{}, &DocumentError{Path: name, Problems: []string{err.Error()}}
	}

	if err := validation.ValidateTemplate(record); err != nil {
		var terr *validation.TemplateError
		if errors.As(err, &terr) {
			return model.TemplateRecord{}, &DocumentError{Path: name, Problems: terr.Problems}
		}
		return model.TemplateRecord{}, &DocumentError{Path: name, Problems: []string{err.Error()}}
	}
	return normalise(record), nil
}

func readDocuments(fsys fs.FS) ([]model.TemplateRecord, error) {
	if fsys == nil {
		return nil, errors.New("catalog: filesystem is required")
	}

	var (
		records []model.TemplateRecord
		errs    []error
		seen    = make(map[string]string)
	)
	walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !isTemplateFile(p) {
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("catalog: read %s: %w", p, err))
			return nil
		}
		record, err := ParseDocument(p, raw)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if first, dup := seen[record.ID]; dup {
			errs = append(errs, &DocumentError{Path: p, Problems: []string{fmt.Sprintf("id %q already defined in %s", record.ID, first)}})
			return nil
		}
		seen[record.ID] = p
		records = append(records, record)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("catalog: walk templates: %w", walkErr)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

func isTemplateFile(name string) bool {
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(path.Ext(base)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func normalise(record model.TemplateRecord) model.TemplateRecord {
	if record.Complexity == "" {
		record.Complexity = model.ComplexityFor(len(record.Fields))
	}
	if record.Category == "" {
		record.Category = "general"
	}
	return record
}
