package host

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/proxy"
	"github.com/wippyai/script-bridge/resource"
)

var (
	documentType = resource.RegisterType("document")
	itemType     = resource.RegisterType("item")
)

// documentData is the native state of a document.
type documentData struct {
	name  string
	items []resource.Handle
}

// itemData is the native state of an item.
type itemData struct {
	doc    resource.Handle
	name   string
	bounds Rectangle
	style  *Style
}

// Host owns the native documents and the proxies standing for them.
type Host struct {
	table     *resource.UnifiedTable
	docs      *resource.Typed[*documentData]
	items     *resource.Typed[*itemData]
	docProxy  *proxy.Registry[Document]
	itemProxy *proxy.Registry[Item]

	order  []resource.Handle // documents in creation order
	active resource.Handle
	mu     sync.Mutex
}

// New creates an empty host.
func New() *Host {
	return NewWithConfig(proxy.DefaultConfig())
}

// NewWithConfig creates an empty host whose registries use cfg.
func NewWithConfig(cfg proxy.Config) *Host {
	t := resource.NewTable()
	h := &Host{
		table:     t,
		docs:      resource.NewTyped[*documentData](t, documentType),
		items:     resource.NewTyped[*itemData](t, itemType),
		docProxy:  proxy.New[Document]("document", cfg),
		itemProxy: proxy.New[Item]("item", cfg),
	}
	t.Subscribe(h.docProxy)
	t.Subscribe(h.itemProxy)
	return h
}

// CreateDocument creates a document and makes it the active one.
func (h *Host) CreateDocument(name string) (*Document, error) {
	hd := h.docs.Insert(&documentData{name: name})
	if hd == 0 {
		return nil, errors.InvalidInput(errors.PhaseHost, "host is closed")
	}
	h.mu.Lock()
	h.order = append(h.order, hd)
	h.active = hd
	h.mu.Unlock()

	Logger().Debug("document created", zap.String("name", name), zap.Uint32("handle", uint32(hd)))
	return h.document(hd)
}

// Documents returns the open documents in creation order.
func (h *Host) Documents() ([]*Document, error) {
	h.mu.Lock()
	order := slices.Clone(h.order)
	h.mu.Unlock()

	out := make([]*Document, 0, len(order))
	for _, hd := range order {
		d, err := h.document(hd)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Document returns the first open document called name, or nil.
func (h *Host) Document(name string) (*Document, error) {
	h.mu.Lock()
	var found resource.Handle
	for _, hd := range h.order {
		if data, ok := h.docs.Get(hd); ok && data.name == name {
			found = hd
			break
		}
	}
	h.mu.Unlock()
	return h.document(found)
}

// ActiveDocument returns the document scripts act on by default, or nil
// when no document is open.
func (h *Host) ActiveDocument() *Document {
	h.mu.Lock()
	hd := h.active
	h.mu.Unlock()

	d, err := h.document(hd)
	if err != nil {
		return nil
	}
	return d
}

// SetActiveDocument makes d the active document.
func (h *Host) SetActiveDocument(d *Document) error {
	if d == nil {
		return errors.NullValueRejected(errors.PhaseHost, []string{"activeDocument"}, "*host.Document")
	}
	if err := d.Check(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = d.Handle()
	return nil
}

// Close destroys every document. Proxies still held become stale.
func (h *Host) Close() error {
	h.mu.Lock()
	h.order = nil
	h.active = 0
	h.mu.Unlock()
	return h.table.Close()
}

// document resolves the proxy for a document handle.
func (h *Host) document(hd resource.Handle) (*Document, error) {
	return h.docProxy.Resolve(hd, func(ref *proxy.Ref) (*Document, error) {
		if _, ok := h.docs.Get(hd); !ok {
			return nil, errors.StaleHandle(uint32(hd), "document")
		}
		return &Document{Ref: ref, host: h}, nil
	})
}

// item resolves the proxy for an item handle. The item's document proxy is
// resolved first so both share one identity with every other caller.
func (h *Host) item(hi resource.Handle) (*Item, error) {
	return h.itemProxy.Resolve(hi, func(ref *proxy.Ref) (*Item, error) {
		data, ok := h.items.Get(hi)
		if !ok {
			return nil, errors.StaleHandle(uint32(hi), "item")
		}
		doc, err := h.document(data.doc)
		if err != nil {
			return nil, err
		}
		return &Item{Ref: ref, Document: doc, host: h}, nil
	})
}

func (h *Host) closeDocument(hd resource.Handle) error {
	data, ok := h.docs.Get(hd)
	if !ok {
		return errors.StaleHandle(uint32(hd), "document")
	}

	h.mu.Lock()
	items := slices.Clone(data.items)
	data.items = nil
	if i := slices.Index(h.order, hd); i >= 0 {
		h.order = slices.Delete(h.order, i, i+1)
	}
	if h.active == hd {
		h.active = 0
		if n := len(h.order); n > 0 {
			h.active = h.order[n-1]
		}
	}
	h.mu.Unlock()

	for _, hi := range items {
		h.items.Destroy(hi)
	}
	h.docs.Destroy(hd)

	Logger().Debug("document closed", zap.Uint32("handle", uint32(hd)), zap.Int("items", len(items)))
	return nil
}
