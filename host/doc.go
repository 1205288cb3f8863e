// Package host is a small handle-based native object space: vector
// documents holding rectangular items with styles.
//
// Native state lives in a resource table and is addressed by handles.
// Documents and items seen by Go code and scripts are proxies resolved
// through proxy registries, so one handle maps to one proxy at a time and
// an item's Document field is the same proxy a script obtained from the
// host:
//
//	h := host.New()
//	doc, _ := h.CreateDocument("poster")
//	item, _ := doc.CreateRectangle(host.Rectangle{Width: 10, Height: 5})
//	item.Document == doc // true
//
// Destroying a document or item invalidates its proxies. Every later
// access through a stale proxy fails with a stale handle error.
//
// Install prepares a bridge factory for these types: geometry and colors
// become constructible from script records and style colors distinguish
// "unset" (undefined) from "none" (null).
package host
