package host

import (
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/proxy"
)

// Document is the proxy of a native document.
type Document struct {
	*proxy.Ref
	host *Host
}

func (d *Document) data() (*documentData, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	data, ok := d.host.docs.Get(d.Handle())
	if !ok {
		return nil, errors.StaleHandle(uint32(d.Handle()), "document")
	}
	return data, nil
}

func (d *Document) Name() (string, error) {
	data, err := d.data()
	if err != nil {
		return "", err
	}
	d.host.mu.Lock()
	defer d.host.mu.Unlock()
	return data.name, nil
}

func (d *Document) SetName(name string) error {
	data, err := d.data()
	if err != nil {
		return err
	}
	d.host.mu.Lock()
	defer d.host.mu.Unlock()
	data.name = name
	return nil
}

// Items returns the document's items, bottom to top.
func (d *Document) Items() (*ItemSet, error) {
	data, err := d.data()
	if err != nil {
		return nil, err
	}
	d.host.mu.Lock()
	handles := append(data.items[:0:0], data.items...)
	d.host.mu.Unlock()

	set := NewItemSet()
	for _, hi := range handles {
		it, err := d.host.item(hi)
		if err != nil {
			return nil, err
		}
		set.Add(it)
	}
	return set, nil
}

// Item returns the first item called name, or nil.
func (d *Document) Item(name string) (*Item, error) {
	set, err := d.Items()
	if err != nil {
		return nil, err
	}
	for _, it := range set.items {
		n, err := it.Name()
		if err != nil {
			return nil, err
		}
		if n == name {
			return it, nil
		}
	}
	return nil, nil
}

// CreateRectangle adds a rectangle item on top of the document.
func (d *Document) CreateRectangle(bounds Rectangle) (*Item, error) {
	data, err := d.data()
	if err != nil {
		return nil, err
	}
	if err := bounds.validate(); err != nil {
		return nil, err
	}
	hi := d.host.items.Insert(&itemData{
		doc:    d.Handle(),
		bounds: bounds,
		style:  DefaultStyle(),
	})
	if hi == 0 {
		return nil, errors.InvalidInput(errors.PhaseHost, "host is closed")
	}
	d.host.mu.Lock()
	data.items = append(data.items, hi)
	d.host.mu.Unlock()
	return d.host.item(hi)
}

// Activate makes d the active document.
func (d *Document) Activate() error {
	return d.host.SetActiveDocument(d)
}

// Close destroys the document and its items.
func (d *Document) Close() error {
	if err := d.Check(); err != nil {
		return err
	}
	return d.host.closeDocument(d.Handle())
}
