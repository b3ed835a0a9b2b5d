package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeFile(t, `---
containers:
  challenges: HUB-1
  feedback: FB-1
admins: [alice]
containerAdmins:
  HUB-1:
    - bob
`)

	f, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := File{
		Containers:      Containers{Challenges: "HUB-1", Feedback: "FB-1"},
		Admins:          []string{"alice"},
		ContainerAdmins: map[string][]string{"HUB-1": {"bob"}},
	}
	if !reflect.DeepEqual(f, want) {
		t.Errorf("Load() = %+v, want %+v", f, want)
	}
}

func TestLoaderExpandsEnv(t *testing.T) {
	t.Setenv("HERALD_TEST_HUB", "HUB-9")
	path := writeFile(t, "containers:\n  challenges: ${HERALD_TEST_HUB}\n")

	f, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Containers.Challenges != "HUB-9" {
		t.Errorf("challenges = %q, want HUB-9", f.Containers.Challenges)
	}
}

func TestLoaderNoFile(t *testing.T) {
	f, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(f, File{}) {
		t.Errorf("Load() = %+v, want empty", f)
	}
}

func TestLoaderErrors(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load(); err == nil {
		t.Error("Load() should fail on a missing file")
	}
	if _, err := NewLoader(writeFile(t, "containers: [unterminated")).Load(); err == nil {
		t.Error("Load() should fail on invalid yaml")
	}
}
