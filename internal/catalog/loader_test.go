package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/eqverify/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const yamlCatalog = `
name: demo
defaults:
  family: complex analysis
  symbols:
    theta: real
statements:
  - id: euler
    left: exp(i*theta)
    right: cos(theta) + i*sin(theta)
  - id: golden
    family: golden ratio
    left: ((1 + sqrt(5))/2)^2
    right: (1 + sqrt(5))/2 + 1
    symbols:
      theta: complex
  - id: half
    left: 1/2
    right: 0.5
    relation: "=="
  - id: entropy
    left: dS
    right: 0
    relation: ">="
    note: isolated system
`

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "demo.yaml", yamlCatalog)

	cat, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Name != "demo" || cat.Path != path {
		t.Errorf("name/path = %q/%q", cat.Name, cat.Path)
	}

	ids := []string{"euler", "golden", "half", "entropy"}
	if len(cat.Statements) != len(ids) {
		t.Fatalf("got %d statements, want %d", len(cat.Statements), len(ids))
	}
	for i, id := range ids {
		if cat.Statements[i].ID != id {
			t.Errorf("statement %d = %s, want %s", i, cat.Statements[i].ID, id)
		}
	}

	euler := cat.Statements[0]
	if euler.Family != "complex analysis" || euler.Relation != model.RelationIdentity {
		t.Errorf("defaults not applied: %+v", euler)
	}
	if euler.Symbols["theta"] != model.DomainReal {
		t.Errorf("theta = %s, want real", euler.Symbols["theta"])
	}
	if cat.Statements[1].Symbols["theta"] != model.DomainComplex {
		t.Error("statement symbols must override defaults")
	}

	half := cat.Statements[2]
	if half.Right != "0.5" || half.Relation != model.RelationIdentity {
		t.Errorf("numbers must be rendered as text: %+v", half)
	}

	entropy := cat.Statements[3]
	if entropy.Relation != model.RelationGreaterEq || entropy.Right != "0" || entropy.Note != "isolated system" {
		t.Errorf("entropy = %+v", entropy)
	}
}

func TestLoadJSONList(t *testing.T) {
	path := writeFile(t, t.TempDir(), "list.json", `[
  {"id": "a", "left": "x + x", "right": "2*x"},
  {"id": 2, "left": "x", "right": 1, "relation": "axiom"}
]`)

	cat, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Name != "list" {
		t.Errorf("name = %q, want file base name", cat.Name)
	}
	if len(cat.Statements) != 2 || cat.Statements[1].ID != "2" || cat.Statements[1].Right != "1" {
		t.Fatalf("statements = %+v", cat.Statements)
	}
	if cat.Statements[0].Family != model.DefaultFamily {
		t.Errorf("family = %q, want %q", cat.Statements[0].Family, model.DefaultFamily)
	}
}

func TestLoadCUE(t *testing.T) {
	path := writeFile(t, t.TempDir(), "demo.cue", `
name: "cue-demo"
defaults: symbols: theta: "real"
statements: [
	{id: "euler", family: "complex", left: "exp(i*theta)", right: "cos(theta) + i*sin(theta)"},
	{id: "two", left: "1 + 1", right: 2},
]
`)

	cat, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Name != "cue-demo" || len(cat.Statements) != 2 {
		t.Fatalf("catalog = %+v", cat)
	}
	if cat.Statements[0].Symbols["theta"] != model.DomainReal {
		t.Error("cue defaults not applied")
	}
	if cat.Statements[1].Right != "2" {
		t.Errorf("right = %q, want 2", cat.Statements[1].Right)
	}
}

func TestLoadCUERejectsUnknownTopLevelField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.cue", `
statements: []
extra: 1
`)
	if _, err := Load(context.Background(), path); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestLoadStarlark(t *testing.T) {
	path := writeFile(t, t.TempDir(), "powers.star", `
catalog(name = "star-demo", family = "algebra", symbols = {"x": "positive"})

for k in range(1, 4):
    statement(id = "pow%d" % k, left = "x^%d * x" % k, right = "x^%d" % (k + 1))

statement(id = "sq", left = "sqrt(x^2)", right = "x", relation = "=", family = "radicals")
`)

	cat, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Name != "star-demo" || len(cat.Statements) != 4 {
		t.Fatalf("catalog = %+v", cat)
	}
	if cat.Statements[2].ID != "pow3" || cat.Statements[2].Right != "x^4" {
		t.Errorf("pow3 = %+v", cat.Statements[2])
	}
	if cat.Statements[0].Family != "algebra" || cat.Statements[3].Family != "radicals" {
		t.Error("family defaults not applied")
	}
	if cat.Statements[3].Symbols["x"] != model.DomainPositive {
		t.Error("symbol defaults not applied")
	}
}

func TestLoadStarlarkErrors(t *testing.T) {
	dir := t.TempDir()
	for name, src := range map[string]string{
		"positional.star": `statement("a", "x", "x")`,
		"keyword.star":    `catalog(colour = "red")`,
		"syntax.star":     `statement(id = `,
	} {
		path := writeFile(t, dir, name, src)
		if _, err := Load(context.Background(), path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadRejectsMalformedStatements(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		id    string
		index int
	}{
		{"missing right", `[{id: a, left: x, right: x}, {id: b, left: x}]`, "b", 2},
		{"missing left", `[{id: a, right: x}]`, "a", 1},
		{"missing id", `[{left: x, right: x}]`, "", 1},
		{"duplicate id", `[{id: a, left: x, right: x}, {id: a, left: y, right: y}]`, "a", 2},
		{"unknown domain", `[{id: a, left: x, right: x, symbols: {x: quaternion}}]`, "a", 1},
		{"unknown relation", `[{id: a, left: x, right: x, relation: about}]`, "a", 1},
		{"reserved constant", `[{id: a, left: x, right: x, symbols: {pi: real}}]`, "a", 1},
		{"unknown field", `[{id: a, left: x, right: x, rigth: y}]`, "a", 1},
		{"not a mapping", `[a]`, "", 1},
	}

	dir := t.TempDir()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.yaml", tc.body)
			_, err := Load(context.Background(), path)
			if !errors.Is(err, ErrMalformedStatement) {
				t.Fatalf("err = %v, want ErrMalformedStatement", err)
			}
			var mse *MalformedStatementError
			if !errors.As(err, &mse) {
				t.Fatalf("err = %T, want *MalformedStatementError", err)
			}
			if mse.ID != tc.id || mse.Index != tc.index {
				t.Errorf("got id %q index %d, want %q %d", mse.ID, mse.Index, tc.id, tc.index)
			}
			if mse.Reason == "" {
				t.Error("empty reason")
			}
		})
	}
}

func TestLoadDoesNotCheckExpressionSyntax(t *testing.T) {
	path := writeFile(t, t.TempDir(), "syntax.yaml", `[{id: a, left: "2x", right: "(("}]`)
	cat, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Statements[0].Left != "2x" {
		t.Errorf("left = %q", cat.Statements[0].Left)
	}
}

func TestLoadKeepsProseAssertions(t *testing.T) {
	path := writeFile(t, t.TempDir(), "regime.yaml", `
statements:
  - id: beta
    left: "β≫1"
    right: quantum regime
    relation: implies
`)
	cat, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	st := cat.Statements[0]
	if st.Left != "β≫1" || st.Right != "quantum regime" {
		t.Errorf("sides = %q / %q", st.Left, st.Right)
	}
	if st.Relation != model.RelationImplies || st.Relation.Kind() != model.KindAssertion {
		t.Errorf("relation = %q (%s)", st.Relation, st.Relation.Kind())
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.txt", "")
	if _, err := Load(context.Background(), path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadCatalogList(t *testing.T) {
	dir := t.TempDir()
	list := writeFile(t, dir, "catalogs.txt", `
# core catalogs
core.yaml
extra/more.cue
core.yaml

/abs/path.star
`)

	paths, err := ReadCatalogList(list)
	if err != nil {
		t.Fatalf("ReadCatalogList: %v", err)
	}
	want := []string{filepath.Join(dir, "core.yaml"), filepath.Join(dir, "extra", "more.cue"), "/abs/path.star"}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}
