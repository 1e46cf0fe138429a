package registry

import (
	"os"
	"path"
	"testing"
)

func TestNormalizePrefix(t *testing.T) {
	table := NewTable()
	cases := []struct {
		prefix string
		want   string
	}{
		{"MESH", "mesh"},
		{"mim", "omim"},
		{"EntrezGene", "ncbigene"},
		{"CVCL", "cellosaurus"},
		{"taxonomy", "ncbitaxon"},
	}
	for _, tc := range cases {
		got, ok := table.NormalizePrefix(tc.prefix)
		if !ok || got != tc.want {
			t.Error("Unexpected canonical prefix", tc.prefix, got, ok)
		}
	}
	if _, ok := table.NormalizePrefix("somethingelse"); ok {
		t.Error("Unknown prefixes must miss, not resolve")
	}
}

func TestPreferredPrefix(t *testing.T) {
	table := NewTable()
	if got, ok := table.PreferredPrefix("ncbigene"); !ok || got != "NCBIGene" {
		t.Error("Unexpected preferred prefix for ncbigene", got, ok)
	}
	if _, ok := table.PreferredPrefix("mesh"); ok {
		t.Error("mesh has no preferred casing, lookup must miss")
	}
	if _, ok := table.PreferredPrefix("cellosaurus"); ok {
		t.Error("cellosaurus has no preferred casing, lookup must miss")
	}
}

func TestLoadSynonyms(t *testing.T) {
	table := NewTable()
	filePath := path.Join(t.TempDir(), "synonyms.psv")
	rows := "SNOMED|snomedct\nMSH|mesh2020\n"
	if err := os.WriteFile(filePath, []byte(rows), 0644); err != nil {
		t.Fatal("Failed to write overlay fixture", err)
	}

	if err := table.LoadSynonyms(filePath); err != nil {
		t.Fatal("Failed to load synonyms", err)
	}
	if got, ok := table.NormalizePrefix("snomed"); !ok || got != "snomedct" {
		t.Error("Overlay row not merged", got, ok)
	}
	if got, ok := table.NormalizePrefix("msh"); !ok || got != "mesh2020" {
		t.Error("Overlay row should override the built-in", got, ok)
	}
	if got, ok := table.NormalizePrefix("mesh"); !ok || got != "mesh" {
		t.Error("Untouched built-ins must survive an overlay", got, ok)
	}

	if err := table.LoadSynonyms(path.Join(t.TempDir(), "missing.psv")); err == nil {
		t.Error("LoadSynonyms should report a missing file")
	}
}
