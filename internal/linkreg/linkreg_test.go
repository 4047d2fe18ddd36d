package linkreg

import (
	"os"
	"path/filepath"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "link.typ"))
}

func TestAddRemove(t *testing.T) {
	r := testRegistry(t)

	if err := r.Add("2602082037"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add("2602082037"); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	if err := r.Add("2602082106"); err != nil {
		t.Fatalf("Add second: %v", err)
	}

	ids, err := r.IDs()
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "2602082037" || ids[1] != "2602082106" {
		t.Errorf("ids = %v", ids)
	}

	if err := r.Remove("2602082037"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ids, _ = r.IDs()
	if len(ids) != 1 || ids[0] != "2602082106" {
		t.Errorf("ids after remove = %v", ids)
	}
}

func TestRemove_MissingIsNoop(t *testing.T) {
	r := testRegistry(t)
	if err := r.Remove("2602082037"); err != nil {
		t.Fatalf("Remove on empty registry: %v", err)
	}
	if _, err := os.Stat(r.Path()); !os.IsNotExist(err) {
		t.Error("no-op remove should not create the file")
	}
}

func TestGenerate_ReplacesWholesale(t *testing.T) {
	r := testRegistry(t)
	_ = r.Add("1111111111")

	if err := r.Generate([]string{"2222222222", "3333333333", "2222222222"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	ids, _ := r.IDs()
	if len(ids) != 2 || ids[0] != "2222222222" || ids[1] != "3333333333" {
		t.Errorf("ids = %v", ids)
	}

	data, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatalf("read registry: %v", err)
	}
	want := "// Generated link registry. Do not edit by hand.\n#zlink(\"2222222222\")\n#zlink(\"3333333333\")\n"
	if string(data) != want {
		t.Errorf("registry content = %q", data)
	}
}
