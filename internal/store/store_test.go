package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbin/partsbin/internal/component"
)

var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// backend opens a store of one kind at a path inside dir.
type backend struct {
	name string
	open func(t *testing.T, dir string) Store
}

var backends = []backend{
	{
		name: BackendJSON,
		open: func(t *testing.T, dir string) Store {
			s, err := NewJSONStore(filepath.Join(dir, "components.json"))
			require.NoError(t, err)
			return s
		},
	},
	{
		name: BackendSQLite,
		open: func(t *testing.T, dir string) Store {
			s, err := NewSQLiteStore(filepath.Join(dir, "metadata.db"))
			require.NoError(t, err)
			return s
		},
	},
}

// forEachBackend runs fn against a fresh store of every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store, reopen func() Store)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			dir := t.TempDir()
			s := b.open(t, dir)
			reopen := func() Store {
				require.NoError(t, s.Close())
				s = b.open(t, dir)
				return s
			}
			t.Cleanup(func() { s.Close() })
			fn(t, s, reopen)
		})
	}
}

func TestCRUD(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		c1 := component.Component{"id": "comp1", "type": "resistor", "value": "100Ω", "description": "Test resistor"}
		c2 := component.Component{"id": "comp2", "type": "capacitor", "value": "10uF", "description": "Test capacitor"}

		added, err := s.Add(c1, "file1.jpg", "hash1")
		require.NoError(t, err)
		assert.True(t, added)
		added, err = s.Add(c2, "file2.jpg", "hash2")
		require.NoError(t, err)
		assert.True(t, added)

		all, err := s.ListAll(nil)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "comp1", all[0].ID())
		assert.Equal(t, "comp2", all[1].ID())

		limited, err := s.ListAll(&ListOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "comp1", limited[0].ID())

		offset, err := s.ListAll(&ListOptions{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, offset, 1)
		assert.Equal(t, "comp2", offset[0].ID())

		past, err := s.ListAll(&ListOptions{Offset: 5})
		require.NoError(t, err)
		assert.Empty(t, past)

		results, err := s.Search("resistor", "")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "comp1", results[0].ID())

		results, err = s.Search("100Ω", "value")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "comp1", results[0].ID())

		got, err := s.GetByID("comp1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "100Ω", got.String("value"))

		ok, err := s.Update("comp1", map[string]any{"value": "200Ω", "qty": "5"})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err = s.GetByID("comp1")
		require.NoError(t, err)
		assert.Equal(t, "200Ω", got.String("value"))
		assert.Equal(t, "5", got.String("qty"))

		ok, err = s.Update("nonexistent", map[string]any{"value": "300Ω"})
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		stats, err := s.GetStats()
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalComponents)
		assert.Equal(t, map[string]int{"resistor": 1, "capacitor": 1}, stats.Types)
		assert.Equal(t, s.Path(), stats.DatabasePath)

		ok, err = s.Delete("comp1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Delete("comp1")
		require.NoError(t, err)
		assert.False(t, ok)

		n, err = s.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		missing, err := s.GetByID("comp1")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestAddRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		in := component.Component{
			"id":       "r1",
			"type":     "  Resistor ",
			"value":    "10kΩ",
			"custom":   map[string]any{"drawer": "A3"},
			"quantity": float64(12),
		}

		added, err := s.Add(in, "scan.jpg", "abc123")
		require.NoError(t, err)
		require.True(t, added)

		got, err := s.GetByID("r1")
		require.NoError(t, err)
		assert.Equal(t, component.Component{
			"id":       "r1",
			"type":     "resistor",
			"value":    "10kΩ",
			"custom":   map[string]any{"drawer": "A3"},
			"quantity": float64(12),
			"file":     "scan.jpg",
			"hash":     "abc123",
		}, got)

		// Add stamps the caller's record.
		assert.Equal(t, "scan.jpg", in.File())
		assert.Equal(t, "resistor", in.Type())
	})
}

func TestStoredValuesAreDetached(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		nested := map[string]any{"drawer": "A3"}
		in := component.Component{
			"id":     "r1",
			"qty":    10,
			"custom": nested,
			"tags":   []any{"smd"},
		}

		added, err := s.Add(in, "scan.jpg", "abc123")
		require.NoError(t, err)
		require.True(t, added)

		nested["drawer"] = "B7"
		in["tags"].([]any)[0] = "tht"

		got, err := s.GetByID("r1")
		require.NoError(t, err)
		assert.Equal(t, float64(10), got["qty"])
		assert.Equal(t, map[string]any{"drawer": "A3"}, got["custom"])
		assert.Equal(t, []any{"smd"}, got["tags"])

		// Mutating a returned record leaves the store untouched.
		got["custom"].(map[string]any)["drawer"] = "C1"
		again, err := s.GetByID("r1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"drawer": "A3"}, again["custom"])

		update := map[string]any{"qty": 4, "custom": map[string]any{"drawer": "D2"}}
		ok, err := s.Update("r1", update)
		require.NoError(t, err)
		require.True(t, ok)
		update["custom"].(map[string]any)["drawer"] = "E5"

		got, err = s.GetByID("r1")
		require.NoError(t, err)
		assert.Equal(t, float64(4), got["qty"])
		assert.Equal(t, map[string]any{"drawer": "D2"}, got["custom"])

		all, err := s.ListAll(nil)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, got, all[0])
	})
}

func TestAddGeneratesID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		c := component.Component{"type": "diode"}
		added, err := s.Add(c, "f", "h")
		require.NoError(t, err)
		require.True(t, added)

		id := c.ID()
		assert.Regexp(t, `^[0-9a-f]{32}$`, id)

		got, err := s.GetByID(id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "diode", got.Type())
	})
}

func TestDedup(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, reopen func() Store) {
		added, err := s.Add(component.Component{"name": "c1"}, "f1", "h1")
		require.NoError(t, err)
		assert.True(t, added)

		added, err = s.Add(component.Component{"name": "c1"}, "f1", "h1")
		require.NoError(t, err)
		assert.False(t, added, "same file and hash")

		added, err = s.Add(component.Component{"name": "other"}, "f1", "h9")
		require.NoError(t, err)
		assert.False(t, added, "same file")

		added, err = s.Add(component.Component{"name": "c1"}, "f2", "h1")
		require.NoError(t, err)
		assert.False(t, added, "same hash")

		added, err = s.Add(component.Component{"name": "c2"}, "f2", "h2")
		require.NoError(t, err)
		assert.True(t, added)

		has, err := s.HasFile("f1")
		require.NoError(t, err)
		assert.True(t, has)
		has, err = s.HasHash("h2")
		require.NoError(t, err)
		assert.True(t, has)
		has, err = s.HasHash("h3")
		require.NoError(t, err)
		assert.False(t, has)

		s = reopen()

		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		has, err = s.HasFile("f2")
		require.NoError(t, err)
		assert.True(t, has)

		added, err = s.Add(component.Component{"name": "c3"}, "f2", "h3")
		require.NoError(t, err)
		assert.False(t, added, "dedup survives reopen")
	})
}

func TestAddRejectsExistingID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		added, err := s.Add(component.Component{"id": "dup", "value": "1k"}, "f1", "h1")
		require.NoError(t, err)
		require.True(t, added)

		in := component.Component{"id": "dup", "value": "2k"}
		added, err = s.Add(in, "f2", "h2")
		require.NoError(t, err)
		assert.False(t, added)
		assert.Empty(t, in.File(), "rejected records are not stamped")

		got, err := s.GetByID("dup")
		require.NoError(t, err)
		assert.Equal(t, "1k", got.String("value"))
	})
}

func TestUpdatePreservesProvenance(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		_, err := s.Add(component.Component{"id": "r1", "type": "resistor", "value": "100Ω"}, "scan.jpg", "h1")
		require.NoError(t, err)

		ok, err := s.Update("r1", map[string]any{
			"value": "200Ω",
			"file":  "evil.jpg",
			"hash":  "evil",
			"id":    "r2",
			"type":  " CAPACITOR ",
		})
		require.NoError(t, err)
		require.True(t, ok)

		got, err := s.GetByID("r1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "200Ω", got.String("value"))
		assert.Equal(t, "scan.jpg", got.File())
		assert.Equal(t, "h1", got.Hash())
		assert.Equal(t, "r1", got.ID())
		assert.Equal(t, "capacitor", got.Type())

		has, err := s.HasHash("h1")
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestSearchScoping(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		_, err := s.Add(component.Component{"id": "a", "type": "resistor", "value": "100Ω"}, "fa", "ha")
		require.NoError(t, err)
		_, err = s.Add(component.Component{"id": "b", "type": "resistor", "value": "1kΩ", "description": "100Ω in the notes"}, "fb", "hb")
		require.NoError(t, err)
		_, err = s.Add(component.Component{"id": "c", "type": "ic", "partNumber": "LM358N"}, "fc", "hc")
		require.NoError(t, err)

		byValue, err := s.Search("100ω", "value")
		require.NoError(t, err)
		require.Len(t, byValue, 1)
		assert.Equal(t, "a", byValue[0].ID())

		anywhere, err := s.Search("100Ω", "")
		require.NoError(t, err)
		assert.Len(t, anywhere, 2)

		byPart, err := s.Search("lm358", "")
		require.NoError(t, err)
		require.Len(t, byPart, 1)
		assert.Equal(t, "c", byPart[0].ID())

		byType, err := s.Search("RESISTOR", "")
		require.NoError(t, err)
		require.Len(t, byType, 2)
		assert.Equal(t, "a", byType[0].ID())
		assert.Equal(t, "b", byType[1].ID())

		none, err := s.Search("anything", "nosuchfield")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStats(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		records := []component.Component{
			{"id": "1", "type": "resistor", "qty": "10 pcs", "description": "10K resistor"},
			{"id": "2", "type": "resistor", "qty": "5 pcs", "description": "1K resistor"},
			{"id": "3", "type": "capacitor", "qty": "20 pcs", "description": "100µF cap"},
			{"id": "4", "type": "ic", "qty": "invalid", "description": "Test IC"},
		}
		for i, c := range records {
			added, err := s.Add(c, "file"+c.ID(), "hash"+c.ID())
			require.NoError(t, err)
			require.True(t, added, "record %d", i)
		}

		stats, err := s.GetStats()
		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalComponents)
		assert.Equal(t, 35, stats.TotalQuantity)
		assert.Equal(t, map[string]int{"resistor": 2, "capacitor": 1, "ic": 1}, stats.Types)
		assert.Equal(t, "resistor", stats.MostCommonType)
	})
}

func TestStatsTieBreakAndUnknownType(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		_, err := s.Add(component.Component{"id": "1", "type": "capacitor", "quantity": float64(3)}, "f1", "h1")
		require.NoError(t, err)
		_, err = s.Add(component.Component{"id": "2", "type": "resistor"}, "f2", "h2")
		require.NoError(t, err)
		_, err = s.Add(component.Component{"id": "3"}, "f3", "h3")
		require.NoError(t, err)

		stats, err := s.GetStats()
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalQuantity)
		assert.Equal(t, 1, stats.Types[component.UnknownType])
		assert.Equal(t, "capacitor", stats.MostCommonType, "ties go to the first type seen")
	})
}

func TestEmptyStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		all, err := s.ListAll(nil)
		require.NoError(t, err)
		assert.Empty(t, all)

		results, err := s.Search("anything", "")
		require.NoError(t, err)
		assert.Empty(t, results)

		stats, err := s.GetStats()
		require.NoError(t, err)
		assert.Zero(t, stats.TotalComponents)
		assert.Zero(t, stats.TotalQuantity)
		assert.Empty(t, stats.Types)
		assert.Empty(t, stats.MostCommonType)

		b, err := json.Marshal(stats)
		require.NoError(t, err)
		assert.Contains(t, string(b), `"most_common_type":null`)

		ok, err := s.Update("any", map[string]any{"value": "x"})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.Delete("any")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := s.GetByID("any")
		require.NoError(t, err)
		assert.Nil(t, got)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

const graphDoc = `{"@graph": [{
  "resistors": [{"resistance": 10000}, {"resistance": 220}],
  "capacitors": [{"capacitance": 0.0001, "subtype": "electrolytic"}],
  "transistors": [{"partNumber": "2N3904"}]
}]}`

func TestImportDBNestedIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		path := filepath.Join(t.TempDir(), "drawer.jsonld")
		require.NoError(t, os.WriteFile(path, []byte(graphDoc), 0644))

		first, err := s.ImportDB(path)
		require.NoError(t, err)
		assert.Equal(t, "nested", first.Format)
		assert.Equal(t, 4, first.Total)
		assert.Equal(t, 4, first.Added)
		assert.Zero(t, first.Skipped)

		second, err := s.ImportDB(path)
		require.NoError(t, err)
		assert.Zero(t, second.Added)
		assert.Equal(t, 4, second.Skipped)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		got, err := s.GetByID("r_10000_Ω")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "10kΩ", got.String("value"))
		assert.Equal(t, "imported_from_drawer.jsonld_r_10000_Ω", got.File())
	})
}

func TestImportDBFlat(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		path := filepath.Join(t.TempDir(), "export.json")
		doc := `[
		  {"id": "a", "type": "Resistor", "value": "1k", "file": "scan-a.jpg", "hash": "ha"},
		  {"id": "b", "type": "capacitor", "value": "10uF"},
		  42
		]`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

		summary, err := s.ImportDB(path)
		require.NoError(t, err)
		assert.Equal(t, "flat", summary.Format)
		assert.Equal(t, 2, summary.Added)
		assert.Equal(t, 1, summary.Invalid)

		a, err := s.GetByID("a")
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "resistor", a.Type())
		assert.Equal(t, "scan-a.jpg", a.File())
		assert.Equal(t, "ha", a.Hash())

		has, err := s.HasFile("imported_from_export.json_b")
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestImportDBMissingAndMalformed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func() Store) {
		dir := t.TempDir()

		summary, err := s.ImportDB(filepath.Join(dir, "missing.json"))
		require.NoError(t, err)
		assert.Zero(t, summary.Added)

		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"hello": "world"}`), 0644))
		summary, err = s.ImportDB(bad)
		require.NoError(t, err)
		assert.Equal(t, "unknown", summary.Format)
		assert.Zero(t, summary.Total)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(filepath.Join(dir, "metadata.db"), filepath.Join(dir, "components.jsonld"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, BackendOf(s))
	require.NoError(t, s.Close())

	s, err = Open("", filepath.Join(dir, "components.jsonld"))
	require.NoError(t, err)
	assert.Equal(t, BackendJSON, BackendOf(s))
	require.NoError(t, s.Close())

	_, err = Open("", "")
	assert.ErrorIs(t, err, ErrNoLocation)
}
