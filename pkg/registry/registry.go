package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/viewmodel"
)

// GenericView names the presentation binding used by synthesised entries.
const GenericView = "generic"

// UnknownMetadata is reported for page ids with neither a registered bundle
// nor a stored template.
var UnknownMetadata = model.Metadata{
	Title:      "Unknown Template",
	Category:   "unknown",
	FieldCount: 0,
	Complexity: model.ComplexitySimple,
}

// BuildFunc turns a value store into a view-model for one template.
type BuildFunc func(values model.Values) viewmodel.ViewModel

// Bundle is the capability set registered for a specialised template.
type Bundle struct {
	// View names the presentation binding. Empty means GenericView.
	View string
	// Fields is the schema the bundle renders. It drives the default builder
	// and the nested projection.
	Fields []model.FieldDefinition
	// Build overrides the generic builder when set.
	Build    BuildFunc
	Metadata model.Metadata
}

// Entry is what Resolve hands to presentation code.
type Entry struct {
	PageID    string
	View      string
	Fields    []model.FieldDefinition
	ViewModel BuildFunc
	Metadata  model.Metadata
	// Generic is true when the entry was synthesised at lookup time.
	Generic bool
}

// Grouped builds the canonical nested view-model for the entry. Without a
// schema the flat keys are split on their first dot.
func (e Entry) Grouped(values model.Values) viewmodel.Grouped {
	flat := e.ViewModel(values)
	if len(e.Fields) == 0 {
		return viewmodel.GroupKeys(flat)
	}
	return viewmodel.Group(flat, e.Fields)
}

// Option customises a Registry.
type Option func(*Registry)

// WithBuilder sets the view-model builder used by synthesised entries.
func WithBuilder(builder *viewmodel.Builder) Option {
	return func(r *Registry) {
		if builder != nil {
			r.builder = builder
		}
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry resolves page ids to capability bundles. Lookups never fail: ids
// without a bundle resolve to a generic entry built from the stored template,
// or to a placeholder when none is available.
type Registry struct {
	mu      sync.RWMutex
	bundles map[string]Bundle
	builder *viewmodel.Builder
	logger  *zap.Logger
}

// New creates an empty registry.
func New(options ...Option) *Registry {
	r := &Registry{
		bundles: make(map[string]Bundle),
		builder: viewmodel.New(),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Register adds a specialised bundle. Duplicate page ids return an error.
func (r *Registry) Register(pageID string, bundle Bundle) error {
	id := strings.TrimSpace(pageID)
	if id == "" {
		return fmt.Errorf("registry: page id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bundles[id]; exists {
		return fmt.Errorf("registry: page %q already registered", id)
	}
	if bundle.Metadata.FieldCount == 0 && len(bundle.Fields) > 0 {
		bundle.Metadata.FieldCount = len(bundle.Fields)
	}
	r.bundles[id] = bundle
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(pageID string, bundle Bundle) {
	if err := r.Register(pageID, bundle); err != nil {
		panic(err)
	}
}

// RegisterTemplate registers a bundle for a stored template under its own id.
func (r *Registry) RegisterTemplate(record model.TemplateRecord, view string) error {
	return r.Register(record.ID, Bundle{
		View:     view,
		Fields:   record.Fields,
		Metadata: record.Metadata(),
	})
}

// Has reports whether a specialised bundle is registered for the page id.
func (r *Registry) Has(pageID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.bundles[pageID]
	return ok
}

// List returns the registered page ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.bundles))
	for id := range r.bundles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve returns the entry for pageID. A registered bundle wins; otherwise
// a generic entry is synthesised from stored, which may be nil.
func (r *Registry) Resolve(pageID string, stored *model.TemplateRecord) Entry {
	r.mu.RLock()
	bundle, ok := r.bundles[pageID]
	r.mu.RUnlock()

	if ok {
		return r.fromBundle(pageID, bundle)
	}

	r.logger.Debug("registry: synthesising generic entry",
		zap.String("page_id", pageID),
		zap.Bool("stored_template", stored != nil),
	)
	return r.generic(pageID, stored)
}

func (r *Registry) fromBundle(pageID string, bundle Bundle) Entry {
	view := bundle.View
	if view == "" {
		view = GenericView
	}
	build := bundle.Build
	if build == nil {
		fields := bundle.Fields
		builder := r.builder
		build = func(values model.Values) viewmodel.ViewModel {
			return builder.Build(values, fields)
		}
	}
	return Entry{
		PageID:    pageID,
		View:      view,
		Fields:    bundle.Fields,
		ViewModel: build,
		Metadata:  bundle.Metadata,
	}
}

func (r *Registry) generic(pageID string, stored *model.TemplateRecord) Entry {
	entry := Entry{
		PageID:  pageID,
		View:    GenericView,
		Generic: true,
	}
	if stored == nil {
		entry.Metadata = UnknownMetadata
		entry.ViewModel = viewmodel.FromValues
		return entry
	}

	fields := append([]model.FieldDefinition(nil), stored.Fields...)
	builder := r.builder
	entry.Fields = fields
	entry.Metadata = stored.Metadata()
	entry.ViewModel = func(values model.Values) viewmodel.ViewModel {
		return builder.Build(values, fields)
	}
	return entry
}
