package classpath_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/charm/classpath"
	charmerrors "github.com/wippyai/charm/errors"
)

func writeDir(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func writeJar(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lib.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindInDirectory(t *testing.T) {
	root := writeDir(t, map[string][]byte{"com/example/Foo.class": []byte("dir")})
	cp, err := classpath.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer cp.Close()

	res, err := cp.Find("com.example.Foo")
	if err != nil {
		t.Fatal(err)
	}
	data, err := res.Bytes()
	if err != nil || string(data) != "dir" {
		t.Errorf("Bytes: %q, %v", data, err)
	}
	if !strings.HasPrefix(res.Location, "file://") || !strings.HasSuffix(res.Location, "com/example/Foo.class") {
		t.Errorf("Location: %s", res.Location)
	}
	if res.Name != "com/example/Foo.class" {
		t.Errorf("Name: %s", res.Name)
	}
}

func TestFindInJar(t *testing.T) {
	jar := writeJar(t, map[string][]byte{"a/B.class": []byte("jar")})
	cp, err := classpath.New(jar)
	if err != nil {
		t.Fatal(err)
	}

	res, err := cp.Find("a.B")
	if err != nil {
		t.Fatal(err)
	}
	rc, err := res.Open()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatal(err)
	}
	rc.Close()
	if buf.String() != "jar" {
		t.Errorf("content: %q", buf.String())
	}
	if !strings.HasPrefix(res.Location, "jar:file://") || !strings.HasSuffix(res.Location, "lib.jar!/a/B.class") {
		t.Errorf("Location: %s", res.Location)
	}
	if err := cp.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestFindAfterClose(t *testing.T) {
	jar := writeJar(t, map[string][]byte{"a/B.class": []byte("jar")})
	cp, err := classpath.New(jar)
	if err != nil {
		t.Fatal(err)
	}
	before, err := cp.Find("a.B")
	if err != nil {
		t.Fatal(err)
	}
	if err := cp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	after, err := cp.Find("a.B")
	if err != nil {
		t.Fatal(err)
	}
	defer cp.Close()
	if after == before {
		t.Error("lookup after Close returned the cached resource")
	}
	data, err := after.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(data) != "jar" {
		t.Errorf("content: %q", data)
	}
}

func TestFirstEntryWins(t *testing.T) {
	first := writeDir(t, map[string][]byte{"X.class": []byte("first")})
	jar := writeJar(t, map[string][]byte{"X.class": []byte("second"), "Y.class": []byte("y")})
	cp, err := classpath.New(filepath.Join(t.TempDir(), "missing"), first, jar)
	if err != nil {
		t.Fatal(err)
	}
	defer cp.Close()

	res, err := cp.Find("X")
	if err != nil {
		t.Fatal(err)
	}
	if data, _ := res.Bytes(); string(data) != "first" {
		t.Errorf("X: got %q", data)
	}
	res, err = cp.Find("Y")
	if err != nil {
		t.Fatal(err)
	}
	if data, _ := res.Bytes(); string(data) != "y" {
		t.Errorf("Y: got %q", data)
	}

	cached, _ := cp.Find("X")
	if cached != res && cached.Name != "X.class" {
		t.Errorf("cached lookup: %+v", cached)
	}
	if again, _ := cp.Find("X"); again != cached {
		t.Error("lookups should be cached")
	}
	if got := cp.Entries(); len(got) != 3 || got[2] != jar {
		t.Errorf("Entries: %v", got)
	}
}

func TestNotFound(t *testing.T) {
	cp, err := classpath.New(t.TempDir(), filepath.Join(t.TempDir(), "absent.jar"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = cp.Find("com.example.Missing")
	if !charmerrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var ce *charmerrors.Error
	errors.As(err, &ce)
	if ce.Phase != charmerrors.PhaseLookup || ce.Value != "com.example.Missing" {
		t.Errorf("got %+v", ce)
	}
}

func TestCorruptArchive(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.jar")
	if err := os.WriteFile(bad, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	cp, err := classpath.New(bad)
	if err != nil {
		t.Fatal(err)
	}
	_, err = cp.Find("A")
	if err == nil || charmerrors.IsNotFound(err) {
		t.Fatalf("expected an archive error, got %v", err)
	}
}

func TestSplitAndResourceName(t *testing.T) {
	list := strings.Join([]string{"a", "b.jar"}, string(os.PathListSeparator))
	if got := classpath.Split(list); len(got) != 2 || got[1] != "b.jar" {
		t.Errorf("Split: %v", got)
	}
	if classpath.Split("") != nil {
		t.Error("empty list")
	}
	if got := classpath.ResourceName("java.lang.String"); got != "java/lang/String.class" {
		t.Errorf("ResourceName: %s", got)
	}
}
