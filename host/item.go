package host

import (
	"slices"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/proxy"
)

// Item is the proxy of a native item. Document is the owning document's
// proxy.
type Item struct {
	*proxy.Ref
	Document *Document `script:"document,readonly"`
	host     *Host
}

func (it *Item) data() (*itemData, error) {
	if err := it.Check(); err != nil {
		return nil, err
	}
	data, ok := it.host.items.Get(it.Handle())
	if !ok {
		return nil, errors.StaleHandle(uint32(it.Handle()), "item")
	}
	return data, nil
}

func (it *Item) Name() (string, error) {
	data, err := it.data()
	if err != nil {
		return "", err
	}
	it.host.mu.Lock()
	defer it.host.mu.Unlock()
	return data.name, nil
}

func (it *Item) SetName(name string) error {
	data, err := it.data()
	if err != nil {
		return err
	}
	it.host.mu.Lock()
	defer it.host.mu.Unlock()
	data.name = name
	return nil
}

func (it *Item) Bounds() (Rectangle, error) {
	data, err := it.data()
	if err != nil {
		return Rectangle{}, err
	}
	it.host.mu.Lock()
	defer it.host.mu.Unlock()
	return data.bounds, nil
}

func (it *Item) SetBounds(r Rectangle) error {
	data, err := it.data()
	if err != nil {
		return err
	}
	if err := r.validate(); err != nil {
		return err
	}
	it.host.mu.Lock()
	defer it.host.mu.Unlock()
	data.bounds = r
	return nil
}

// Position is the center of the item's bounds.
func (it *Item) Position() (Point, error) {
	b, err := it.Bounds()
	if err != nil {
		return Point{}, err
	}
	return b.Center(), nil
}

// SetPosition moves the item so its center is p.
func (it *Item) SetPosition(p Point) error {
	b, err := it.Bounds()
	if err != nil {
		return err
	}
	return it.SetBounds(b.Translate(p.Subtract(b.Center())))
}

// Translate moves the item by d.
func (it *Item) Translate(d Point) error {
	b, err := it.Bounds()
	if err != nil {
		return err
	}
	return it.SetBounds(b.Translate(d))
}

// Style returns the item's live style. Changes to it apply to the item.
func (it *Item) Style() (*Style, error) {
	data, err := it.data()
	if err != nil {
		return nil, err
	}
	it.host.mu.Lock()
	defer it.host.mu.Unlock()
	return data.style, nil
}

// SetStyle copies s into the item's style. Nil restores the default style.
func (it *Item) SetStyle(s *Style) error {
	data, err := it.data()
	if err != nil {
		return err
	}
	if s == nil {
		s = DefaultStyle()
	}
	it.host.mu.Lock()
	defer it.host.mu.Unlock()
	if s != data.style {
		*data.style = *s
	}
	return nil
}

// Remove deletes the item from its document.
func (it *Item) Remove() error {
	data, err := it.data()
	if err != nil {
		return err
	}
	if doc, ok := it.host.docs.Get(data.doc); ok {
		it.host.mu.Lock()
		if i := slices.Index(doc.items, it.Handle()); i >= 0 {
			doc.items = slices.Delete(doc.items, i, i+1)
		}
		it.host.mu.Unlock()
	}
	it.host.items.Destroy(it.Handle())
	return nil
}
