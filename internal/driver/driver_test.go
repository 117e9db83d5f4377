package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/x/exp/golden"

	"github.com/xonecas/typo/internal/constants"
	"github.com/xonecas/typo/internal/frontend"
)

const shapes = `macro_rules! square {
	($x:expr) => { $x * $x };
}
struct Point {
	x: i32,
	y: i32,
}
enum Dir { Up, Down }
trait Area {
	fn area(&self) -> f64;
}
impl Point {
	fn norm(&self) -> i32 { self.x + self.y }
}
fn ratio(a: f64, b: f64) -> f64 { a / b }
fn main() {
	let p = Point { x: 1, y: 2 };
	let n = p.norm();
}
`

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRun_Tags(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "tags")
	second := filepath.Join(dir, "TAGS")

	err := Run(context.Background(), Options{
		Input:       frontend.TextInput(shapes),
		ProgramName: constants.ProgramName,
		TagPaths:    []string{first, second},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := readFile(t, first)
	if got := readFile(t, second); got != out {
		t.Errorf("destinations differ:\n%s\n---\n%s", out, got)
	}
	golden.RequireEqual(t, []byte(out))
}

func TestRun_TagsAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags")
	ctx := context.Background()
	opts := Options{
		Input:       frontend.TextInput("fn one() {}\n"),
		ProgramName: "idx",
		TagPaths:    []string{path},
	}
	if err := Run(ctx, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	opts.Input = frontend.TextInput("macro_rules! two { () => {} }\nfn three() {}\n")
	opts.TagsAppend = true
	if err := Run(ctx, opts); err != nil {
		t.Fatalf("Run append: %v", err)
	}

	golden.RequireEqual(t, []byte(readFile(t, path)))
}

func TestRun_NodeMap(t *testing.T) {
	src := "fn main() { let x = 5; }\n"
	path := filepath.Join(t.TempDir(), "nodes")
	err := Run(context.Background(), Options{
		Input:        frontend.TextInput(src),
		NodeMapPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var texts []string
	for _, line := range strings.Split(strings.TrimSuffix(readFile(t, path), "\n"), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			t.Fatalf("malformed line %q", line)
		}
		if fields[0] != constants.StdinName {
			t.Errorf("file = %q, want %q", fields[0], constants.StdinName)
		}
		begin, err1 := strconv.Atoi(fields[1])
		end, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || begin > end || end > len(src) {
			t.Fatalf("bad range in %q", line)
		}
		if _, err := strconv.ParseUint(fields[3], 10, 32); err != nil {
			t.Errorf("bad id in %q: %v", line, err)
		}
		texts = append(texts, src[begin:end])
	}

	want := []string{"let x = 5;", "x", "5"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("node texts = %q, want %q", texts, want)
	}
}

func TestRun_TypeMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types")
	err := Run(context.Background(), Options{
		Input:        frontend.TextInput("fn main() { let x = 5; let ok = x > 1; }\n"),
		TypeMapPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	counts := map[string]int{}
	for _, line := range strings.Split(strings.TrimSuffix(readFile(t, path), "\n"), "\n") {
		id, typ, ok := strings.Cut(line, "\t")
		if !ok {
			t.Fatalf("malformed line %q", line)
		}
		if _, err := strconv.ParseUint(id, 10, 32); err != nil {
			t.Errorf("bad id in %q: %v", line, err)
		}
		counts[typ]++
	}
	if counts["i32"] == 0 || counts["bool"] == 0 {
		t.Errorf("type counts = %v, want i32 and bool entries", counts)
	}
}

func TestRun_ParseErrorWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags")
	err := Run(context.Background(), Options{
		Input:    frontend.TextInput("fn main( {\n"),
		TagPaths: []string{path},
	})
	if !errors.Is(err, frontend.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("tag file exists after parse failure: %v", err)
	}
}

func TestRun_ExpandErrorWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags")
	err := Run(context.Background(), Options{
		Input:    frontend.TextInput("#[cfg(not(a, b))]\nfn f() {}\n"),
		TagPaths: []string{path},
	})
	if !errors.Is(err, frontend.ErrExpand) {
		t.Fatalf("err = %v, want ErrExpand", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("tag file exists after expansion failure: %v", err)
	}
}

func TestRun_OutputError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "tags")
	err := Run(context.Background(), Options{
		Input:    frontend.TextInput("fn main() {}\n"),
		TagPaths: []string{path},
	})
	if !errors.Is(err, ErrOutput) {
		t.Fatalf("err = %v, want ErrOutput", err)
	}
	var oe *OutputError
	if !errors.As(err, &oe) || oe.Path != path {
		t.Errorf("OutputError = %+v, want path %s", oe, path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want to wrap os.ErrNotExist", err)
	}
}

func TestRun_BadCfg(t *testing.T) {
	err := Run(context.Background(), Options{
		Input:    frontend.TextInput("fn main() {}\n"),
		Frontend: frontend.Options{Cfg: []string{"=x"}},
	})
	if !errors.Is(err, frontend.ErrCfgSpec) {
		t.Errorf("err = %v, want ErrCfgSpec", err)
	}
}
