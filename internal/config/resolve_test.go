package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDBPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")

	cwd := t.TempDir()
	home := t.TempDir()
	configured := DatabaseConfig{
		SQLitePath: "/cfg/metadata.db",
		JSONLDPath: "/cfg/components.jsonld",
	}

	t.Run("default data home", func(t *testing.T) {
		sqlite, json := ResolveDBPaths(ResolveInput{Cwd: cwd, Home: home})
		assert.Equal(t, filepath.Join(home, ".local", "share", "partsbin", "metadata.db"), sqlite)
		assert.Empty(t, json)
	})

	t.Run("configuration beats default", func(t *testing.T) {
		sqlite, json := ResolveDBPaths(ResolveInput{Cwd: cwd, Home: home, Database: configured})
		assert.Equal(t, "/cfg/metadata.db", sqlite)
		assert.Equal(t, "/cfg/components.jsonld", json)
	})

	t.Run("configured paths expand home", func(t *testing.T) {
		sqlite, _ := ResolveDBPaths(ResolveInput{
			Cwd:      cwd,
			Home:     home,
			Database: DatabaseConfig{SQLitePath: "~/inv/metadata.db"},
		})
		assert.Equal(t, filepath.Join(home, "inv", "metadata.db"), sqlite)
	})

	t.Run("local discovery beats configuration", func(t *testing.T) {
		local := t.TempDir()
		writeFile(t, filepath.Join(local, "components.jsonld"), "[]")

		sqlite, json := ResolveDBPaths(ResolveInput{Cwd: local, Home: home, Database: configured})
		assert.Empty(t, sqlite)
		assert.Equal(t, filepath.Join(local, "components.jsonld"), json)

		writeFile(t, filepath.Join(local, "metadata.db"), "")
		sqlite, json = ResolveDBPaths(ResolveInput{Cwd: local, Home: home, Database: configured})
		assert.Equal(t, filepath.Join(local, "metadata.db"), sqlite)
		assert.Equal(t, filepath.Join(local, "components.jsonld"), json)
	})

	t.Run("explicit beats everything", func(t *testing.T) {
		local := t.TempDir()
		writeFile(t, filepath.Join(local, "metadata.db"), "")

		sqlite, json := ResolveDBPaths(ResolveInput{
			JSONPath: "/explicit/inv.json",
			Cwd:      local,
			Home:     home,
			Database: configured,
		})
		assert.Empty(t, sqlite)
		assert.Equal(t, "/explicit/inv.json", json)
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/xdg")
		sqlite, _ := ResolveDBPaths(ResolveInput{Cwd: cwd, Home: home})
		assert.Equal(t, filepath.Join("/xdg", "partsbin", "metadata.db"), sqlite)
	})
}
