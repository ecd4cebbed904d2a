// Package transform holds the closed set of named text transforms applied
// to recognized text before hashing and field parsing.
package transform

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Func rewrites recognized text.
type Func func(string) string

// registry is the complete set of transforms. Names outside it are
// configuration errors.
var registry = map[string]Func{
	"trim":            strings.TrimSpace,
	"nfc":             norm.NFC.String,
	"nfkc":            norm.NFKC.String,
	"collapse_spaces": collapseSpaces,
	"ohm_symbol":      strings.NewReplacer("\u2126", "\u03a9").Replace,
	"micro_sign":      strings.NewReplacer("\u03bc", "\u00b5").Replace,
}

// Names returns the registered transform names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain is an ordered list of transforms.
type Chain struct {
	names []string
	funcs []Func
}

// NewChain validates names and builds a chain that applies them in order.
func NewChain(names []string) (*Chain, error) {
	c := &Chain{}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		fn, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown transform %q (available: %s)", raw, strings.Join(Names(), ", "))
		}
		c.names = append(c.names, name)
		c.funcs = append(c.funcs, fn)
	}
	return c, nil
}

// Apply runs every transform in order.
func (c *Chain) Apply(text string) string {
	if c == nil {
		return text
	}
	for _, fn := range c.funcs {
		text = fn(text)
	}
	return text
}

// Names returns the transform names in application order.
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.names...)
}

// collapseSpaces squeezes runs of spaces and tabs inside each line and
// drops blank lines, keeping line structure for the description field.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
