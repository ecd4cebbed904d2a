package importer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"

	"github.com/partsbin/partsbin/internal/component"
)

// collection pairs a sub-collection key with the singular type its
// entries default to.
type collection struct {
	keys []string
	typ  string
}

// collections are visited in this order within every collection object.
var collections = []collection{
	{keys: []string{"resistors"}, typ: "resistor"},
	{keys: []string{"capacitors"}, typ: "capacitor"},
	{keys: []string{"transistors"}, typ: "transistor"},
	{keys: []string{"integratedCircuits", "integrated_circuits"}, typ: "ic"},
	{keys: []string{"potentiometers"}, typ: "potentiometer"},
	{keys: []string{"passives"}, typ: "passive"},
	{keys: []string{"components"}, typ: "component"},
}

// passthrough fields are copied from a nested entry when present.
var passthrough = []string{
	"partNumber",
	"package",
	"tolerance",
	"color",
	"usage",
	"voltage",
	"voltageUnit",
}

var typeAliases = map[string]string{
	"integrated circuit": "ic",
	"integratedcircuit":  "ic",
	"integrated_circuit": "ic",
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_\-.µΩ]+`)

func normalizeNested(items []any, base string) Result {
	res := Result{Format: FormatNested}
	hashByFile := make(map[string]string)

	for _, item := range items {
		coll, ok := item.(map[string]any)
		if !ok {
			res.Invalid++
			continue
		}
		for _, sub := range collections {
			entries := subCollection(coll, sub.keys)
			for _, e := range entries {
				entry, ok := e.(map[string]any)
				if !ok {
					res.Invalid++
					continue
				}
				c := normalizeEntry(entry, sub.typ)
				rec := Record{
					Component: c,
					File:      provenanceFile(base, c.ID()),
					Hash:      contentHash(c),
				}
				if prev, seen := hashByFile[rec.File]; seen && prev != rec.Hash {
					res.Collisions++
					log.Debug("Entries share a provenance file", "id", c.ID(), "file", rec.File)
				} else if !seen {
					hashByFile[rec.File] = rec.Hash
				}
				res.Records = append(res.Records, rec)
			}
		}
	}

	return res
}

func subCollection(coll map[string]any, keys []string) []any {
	for _, k := range keys {
		if entries, ok := coll[k].([]any); ok {
			return entries
		}
	}
	return nil
}

// normalizeEntry turns one sub-collection entry into a canonical record.
// The result is a pure function of the entry and its collection type.
func normalizeEntry(entry map[string]any, collType string) component.Component {
	e := component.Component(entry)

	typ := entryType(e, collType)
	c := component.Component{component.FieldType: typ}

	for _, key := range passthrough {
		if v, ok := entry[key]; ok && v != nil {
			c[key] = v
		}
	}

	var id, value, desc string
	switch typ {
	case "resistor":
		id, value, desc = resistorFields(e)
	case "capacitor":
		id, value, desc = capacitorFields(e)
	case "transistor":
		id, value, desc = partFields(e, "q", "transistor")
	case "ic":
		id, value, desc = partFields(e, "ic", "IC")
	default:
		value = e.String(component.FieldValue)
		desc = e.String("name")
		if desc == "" {
			desc = typ
		}
	}

	if explicit := firstString(e, "id", "@id"); explicit != "" {
		id = explicit
	}
	if id == "" {
		id = fallbackID(idPrefix(typ), entry)
	}
	if d := e.String(component.FieldDescription); d != "" {
		desc = d
	}

	c[component.FieldID] = id
	if value != "" {
		c[component.FieldValue] = value
	}
	if desc != "" {
		c[component.FieldDescription] = desc
	}

	return c
}

// entryType resolves the record type from an explicit tag, falling back
// to the collection's singular name.
func entryType(e component.Component, collType string) string {
	tag := firstString(e, "@type", "type")
	if tag == "" {
		return collType
	}
	t := component.NormalizeType(tag)
	if i := strings.LastIndexAny(t, ":/#"); i >= 0 {
		t = t[i+1:]
	}
	if alias, ok := typeAliases[t]; ok {
		return alias
	}
	if t == "" {
		return collType
	}
	return t
}

func resistorFields(e component.Component) (id, value, desc string) {
	unit := firstString(e, "resistanceUnit", "unit")
	if unit == "" {
		unit = "Ω"
	}
	raw, ok := e["resistance"]
	if !ok || raw == nil {
		return "", "", "resistor"
	}

	rs := e.String("resistance")
	id = sanitizeID("r_" + rs + "_" + unit)

	if ohms, ok := raw.(float64); ok && isBareOhm(unit) {
		value = scaleResistance(ohms) + unit
	} else {
		value = rs
		if !strings.HasSuffix(value, unit) {
			value += unit
		}
	}

	return id, value, value + " resistor"
}

// isBareOhm reports whether unit names ohms without a metric prefix.
func isBareOhm(unit string) bool {
	switch unit {
	case "\u03a9", "\u2126":
		return true
	}
	return strings.EqualFold(unit, "ohm") || strings.EqualFold(unit, "ohms")
}

func scaleResistance(ohms float64) string {
	switch {
	case ohms >= 1e6:
		return formatNumber(ohms/1e6) + "M"
	case ohms >= 1e3:
		return formatNumber(ohms/1e3) + "k"
	default:
		return formatNumber(ohms)
	}
}

func capacitorFields(e component.Component) (id, value, desc string) {
	unit := firstString(e, "capacitanceUnit", "unit")
	if unit == "" {
		unit = "F"
	}
	subtype := firstString(e, "subtype", "dielectric", "kind")
	if subtype == "" {
		subtype = "generic"
	}

	raw, ok := e["capacitance"]
	if !ok || raw == nil {
		return "", "", subtype + " capacitor"
	}

	cs := e.String("capacitance")
	id = sanitizeID(strings.ReplaceAll("c_"+cs+"_"+unit+"_"+subtype, ".", "_"))

	if farads, ok := raw.(float64); ok && unit == "F" {
		value = scaleCapacitance(farads)
	} else {
		value = cs
		if !strings.HasSuffix(value, unit) {
			value += unit
		}
	}

	desc = value + " capacitor"
	if subtype != "generic" {
		desc = value + " " + subtype + " capacitor"
	}
	return id, value, desc
}

// scaleCapacitance renders a value in farads with the largest sub-unit
// that keeps the mantissa at or above one.
func scaleCapacitance(f float64) string {
	switch {
	case f >= 1 || f <= 0:
		return formatNumber(f) + "F"
	case f >= 1e-6:
		return formatNumber(f*1e6) + "µF"
	case f >= 1e-9:
		return formatNumber(f*1e9) + "nF"
	default:
		return formatNumber(f*1e12) + "pF"
	}
}

func partFields(e component.Component, prefix, label string) (id, value, desc string) {
	pn := e.String("partNumber")
	if pn == "" {
		return "", "", label
	}
	return sanitizeID(prefix + "_" + pn), pn, pn + " " + label
}

func idPrefix(typ string) string {
	switch typ {
	case "resistor":
		return "r"
	case "capacitor":
		return "c"
	case "transistor":
		return "q"
	case "ic":
		return "ic"
	default:
		return sanitizeID(strings.ReplaceAll(typ, " ", "_"))
	}
}

// fallbackID derives a short numeric id from the entry's sorted-key JSON.
func fallbackID(prefix string, entry map[string]any) string {
	b, err := json.Marshal(entry)
	if err != nil {
		b = []byte(fmt.Sprint(entry))
	}
	return fmt.Sprintf("%s_%d", prefix, xxhash.Sum64(b)%100000)
}

func firstString(e component.Component, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(e.String(k)); s != "" {
			return s
		}
	}
	return ""
}

func sanitizeID(s string) string {
	return unsafeIDChars.ReplaceAllString(s, "_")
}

// formatNumber renders f with up to six significant digits and no
// exponent for the magnitudes that occur in part values.
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'g', 6, 64)
	if strings.ContainsAny(s, "e") {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}
