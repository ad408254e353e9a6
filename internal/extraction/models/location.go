package models

import (
	"encoding/json"

	dErrors "paperview/pkg/domain-errors"
)

// LocationKind discriminates the QuoteLocation variant.
type LocationKind string

const (
	LocationNone     LocationKind = "none"
	LocationPage     LocationKind = "page"
	LocationPageRect LocationKind = "page_rect"
)

// Rect is a selection rectangle on a page.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// QuoteLocation places a quote in its source document. It is a closed
// variant (no location, a page, or a page with a selection rectangle), so
// the all-coordinates-or-none rule holds by construction.
type QuoteLocation struct {
	kind LocationKind
	page int
	rect Rect
}

// NoLocation is the zero variant: the quote carries no position metadata.
func NoLocation() QuoteLocation {
	return QuoteLocation{kind: LocationNone}
}

// PageOnly places the quote on a page (1-indexed).
func PageOnly(page int) (QuoteLocation, error) {
	if page < 1 {
		return QuoteLocation{}, dErrors.New(dErrors.CodeInvariantViolation, "page number must be at least 1")
	}
	return QuoteLocation{kind: LocationPage, page: page}, nil
}

// PageWithRect places the quote on a page with a selection rectangle.
func PageWithRect(page int, rect Rect) (QuoteLocation, error) {
	if page < 1 {
		return QuoteLocation{}, dErrors.New(dErrors.CodeInvariantViolation, "page number must be at least 1")
	}
	return QuoteLocation{kind: LocationPageRect, page: page, rect: rect}, nil
}

func (l QuoteLocation) Kind() LocationKind {
	if l.kind == "" {
		return LocationNone
	}
	return l.kind
}

// Page returns the page number; ok is false for the no-location variant.
func (l QuoteLocation) Page() (page int, ok bool) {
	if l.Kind() == LocationNone {
		return 0, false
	}
	return l.page, true
}

// Rect returns the selection rectangle; ok is false unless the variant
// carries one.
func (l QuoteLocation) Rect() (rect Rect, ok bool) {
	if l.Kind() != LocationPageRect {
		return Rect{}, false
	}
	return l.rect, true
}

type locationJSON struct {
	Page int   `json:"page"`
	Rect *Rect `json:"rect,omitempty"`
}

func (l QuoteLocation) MarshalJSON() ([]byte, error) {
	switch l.Kind() {
	case LocationPage:
		return json.Marshal(locationJSON{Page: l.page})
	case LocationPageRect:
		rect := l.rect
		return json.Marshal(locationJSON{Page: l.page, Rect: &rect})
	default:
		return []byte("null"), nil
	}
}

func (l *QuoteLocation) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = NoLocation()
		return nil
	}
	var raw locationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var (
		loc QuoteLocation
		err error
	)
	if raw.Rect != nil {
		loc, err = PageWithRect(raw.Page, *raw.Rect)
	} else {
		loc, err = PageOnly(raw.Page)
	}
	if err != nil {
		return err
	}
	*l = loc
	return nil
}
