package compiler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"tpp/internal/options"
	"tpp/internal/source"
)

func newTestCompiler() *Compiler {
	return New(source.NewFileSet())
}

func TestCompileProducesArtifact(t *testing.T) {
	c := newTestCompiler()
	res, err := c.CompileSource("t.html", []byte(`<p>  hi  </p>`), options.Default())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if res.Artifact.Output != "<p>hi</p>" {
		t.Errorf("Output = %q", res.Artifact.Output)
	}
	if res.Cached {
		t.Error("first compile reported as cached")
	}
	if res.Artifact.Fingerprint != options.Default().Fingerprint() {
		t.Errorf("Fingerprint = %q", res.Artifact.Fingerprint)
	}
}

func TestSecondCompileHitsCacheWithoutLexing(t *testing.T) {
	c := newTestCompiler()
	set := options.Default()

	first, err := c.CompileSource("t.html", []byte(`<p>hi {{ name }}</p>`), set)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := c.LexCount(); got != 1 {
		t.Fatalf("LexCount after first compile = %d", got)
	}

	second, err := c.CompileSource("t.html", []byte(`<p>hi {{ name }}</p>`), set)
	if err != nil {
		t.Fatalf("recompile: %v", err)
	}
	if got := c.LexCount(); got != 1 {
		t.Errorf("cache hit re-ran the lexer, LexCount = %d", got)
	}
	if !second.Cached {
		t.Error("second compile not marked cached")
	}
	if second.Artifact != first.Artifact {
		t.Error("cache hit returned a different artifact")
	}
}

func TestDistinctOptionSetsAreDistinctUnits(t *testing.T) {
	c := newTestCompiler()

	a, err := c.CompileSource("t.html", []byte("a    b"), options.Default())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	relaxed := options.Default()
	relaxed.Disable(options.FlagWhitespaceCompression)
	b, err := c.CompileSource("t.html", []byte("a    b"), relaxed)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if got := c.LexCount(); got != 2 {
		t.Errorf("LexCount = %d, want one run per option set", got)
	}
	if a.Artifact.Output != "a b" || b.Artifact.Output != "a    b" {
		t.Errorf("outputs %q / %q", a.Artifact.Output, b.Artifact.Output)
	}
}

func TestFailedUnitIsNotCached(t *testing.T) {
	c := newTestCompiler()
	src := []byte(`{% if x %}no close`)

	if _, err := c.CompileSource("bad.html", src, options.Default()); err == nil {
		t.Fatal("want error")
	}
	if _, err := c.CompileSource("bad.html", src, options.Default()); err == nil {
		t.Fatal("want error on retry")
	}
	if got := c.LexCount(); got != 2 {
		t.Errorf("failed unit was cached, LexCount = %d", got)
	}
}

func TestConcurrentSameKeyCompilesOnce(t *testing.T) {
	c := newTestCompiler()
	c.Files.AddVirtual("t.html", []byte(`<p>{{ x }}</p>`))
	set := options.Default()

	var wg sync.WaitGroup
	outputs := make([]string, 16)
	for i := range outputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.CompileSource("t.html", nil, set)
			if err != nil {
				t.Errorf("compile: %v", err)
				return
			}
			outputs[i] = res.Artifact.Output
		}()
	}
	wg.Wait()

	if got := c.LexCount(); got != 1 {
		t.Errorf("LexCount = %d, want 1", got)
	}
	for i, out := range outputs {
		if out != "<p>{{ x }}</p>" {
			t.Errorf("output %d = %q", i, out)
		}
	}
}

func TestIdempotence(t *testing.T) {
	src := `<div> <p>a   b</p> {% if x %} <em>c</em> {% endif %} </div>`
	set := options.Default()

	c1 := newTestCompiler()
	first, err := c1.CompileSource("t.html", []byte(src), set)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	c2 := newTestCompiler()
	second, err := c2.CompileSource("t.html", []byte(first.Artifact.Output), set)
	if err != nil {
		t.Fatalf("recompile of output: %v", err)
	}
	if second.Artifact.Output != first.Artifact.Output {
		t.Errorf("not a fixpoint:\n first %q\nsecond %q", first.Artifact.Output, second.Artifact.Output)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	disk, err := OpenDiskCacheAt(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	c1 := newTestCompiler()
	c1.Disk = disk
	res, err := c1.CompileSource("t.html", []byte(`<p>hi</p>`), options.Default())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	// A fresh compiler with the same disk cache serves the artifact
	// without running the pipeline.
	c2 := newTestCompiler()
	c2.Disk = disk
	got, err := c2.CompileSource("t.html", []byte(`<p>hi</p>`), options.Default())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got.Artifact.Output != res.Artifact.Output {
		t.Errorf("disk artifact %q != %q", got.Artifact.Output, res.Artifact.Output)
	}
	if c2.LexCount() != 0 {
		t.Errorf("disk hit still lexed, LexCount = %d", c2.LexCount())
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompileDir(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"tpp.toml": "[preprocessor]\ndefault = []\n\n[preprocessor.apps]\nshop = [\"no-whitespace-compression\"]\n",
		"shop/item.html":  "a    b",
		"blog/post.html":  "a    b",
		"blog/README.txt": "not a template",
	})

	c := newTestCompiler()
	results, err := c.CompileDir(context.Background(), dir, BatchOptions{Jobs: 2})
	if err != nil {
		t.Fatalf("CompileDir: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	// Sorted by path: blog before shop.
	if results[0].Path != "blog/post.html" || results[1].Path != "shop/item.html" {
		t.Fatalf("order: %q, %q", results[0].Path, results[1].Path)
	}
	if results[0].Result.Artifact.Output != "a b" {
		t.Errorf("blog output = %q", results[0].Result.Artifact.Output)
	}
	if results[1].Result.Artifact.Output != "a    b" {
		t.Errorf("shop output = %q, app override ignored", results[1].Result.Artifact.Output)
	}
}

func TestCompileDirNoHTMLFallback(t *testing.T) {
	dir := t.TempDir()
	// A div left unclosed fails structural processing but compiles in
	// no-html mode.
	writeTree(t, dir, map[string]string{
		"legacy.html": "<div>never closed",
	})

	c := newTestCompiler()
	results, err := c.CompileDir(context.Background(), dir, BatchOptions{NoHTMLFallback: true})
	if err != nil {
		t.Fatalf("CompileDir: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("fallback did not rescue: %v", results[0].Err)
	}
	if !results[0].Fallback {
		t.Error("Fallback not reported")
	}
	if results[0].Result.Artifact.Output != "<div>never closed" {
		t.Errorf("output = %q", results[0].Result.Artifact.Output)
	}
}
