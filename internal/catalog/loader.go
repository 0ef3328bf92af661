package catalog

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/eqverify/internal/model"
)

// Format is a catalog file syntax
type Format string

const (
	FormatYAML     Format = "yaml" // also used for JSON
	FormatCUE      Format = "cue"
	FormatStarlark Format = "starlark"
)

// FormatOf picks the format from the file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	case ".star":
		return FormatStarlark, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load reads, decodes and validates a catalog file. It fails on the first
// malformed record; expression syntax is not checked here.
func Load(ctx context.Context, path string) (*model.Catalog, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := Decode(ctx, path, format, data)
	if err != nil {
		return nil, err
	}
	cat.Path = path
	return cat, nil
}

// document is a decoded catalog before validation
type document struct {
	name     string
	defaults map[string]any
	records  []any
}

// Decode builds a catalog from file contents. filename names the catalog
// when the document does not.
func Decode(ctx context.Context, filename string, format Format, data []byte) (*model.Catalog, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}

	var doc document
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(v, data)
	case FormatCUE:
		var raw map[string]any
		if raw, err = v.compile(filename, data); err == nil {
			doc, err = fromMap(raw)
		}
	case FormatStarlark:
		doc, err = decodeStarlark(ctx, filename, data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	name := doc.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	b := &builder{v: v, seen: make(map[string]bool)}
	if err := b.setDefaults(doc.defaults); err != nil {
		return nil, err
	}

	cat := &model.Catalog{Name: name, Statements: make([]model.Statement, 0, len(doc.records))}
	for i, rec := range doc.records {
		st, err := b.statement(i+1, rec)
		if err != nil {
			return nil, err
		}
		cat.Statements = append(cat.Statements, st)
	}
	return cat, nil
}

func decodeYAML(v *validator, data []byte) (document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return document{}, fmt.Errorf("parse catalog: %w", err)
	}
	switch x := raw.(type) {
	case nil:
		return document{}, nil
	case []any:
		return document{records: x}, nil
	case map[string]any:
		if err := v.check(v.catalog, x); err != nil {
			return document{}, fmt.Errorf("invalid catalog: %s", describe(err))
		}
		return fromMap(x)
	}
	return document{}, fmt.Errorf("parse catalog: top level must be a mapping or a list, got %T", raw)
}

func fromMap(raw map[string]any) (document, error) {
	doc := document{}
	doc.name, _ = raw["name"].(string)
	if d, ok := raw["defaults"].(map[string]any); ok {
		doc.defaults = d
	}
	if recs, ok := raw["statements"].([]any); ok {
		doc.records = recs
	}
	return doc, nil
}

// builder turns raw records into statements
type builder struct {
	v        *validator
	seen     map[string]bool
	family   string
	relation string
	symbols  map[string]any
}

func (b *builder) setDefaults(d map[string]any) error {
	if d == nil {
		return nil
	}
	if err := b.v.check(b.v.defaults, d); err != nil {
		return fmt.Errorf("invalid defaults: %s", describe(err))
	}
	b.family, _ = d["family"].(string)
	b.relation, _ = d["relation"].(string)
	b.symbols, _ = d["symbols"].(map[string]any)
	return nil
}

func (b *builder) statement(index int, raw any) (model.Statement, error) {
	rec, ok := raw.(map[string]any)
	if !ok {
		return model.Statement{}, &MalformedStatementError{Index: index, Reason: fmt.Sprintf("record must be a mapping, got %T", raw)}
	}
	id, _ := toText(rec["id"])
	fail := func(format string, args ...any) error {
		return &MalformedStatementError{ID: id, Index: index, Reason: fmt.Sprintf(format, args...)}
	}

	if id == "" {
		return model.Statement{}, fail("missing id")
	}
	if b.seen[id] {
		return model.Statement{}, fail("duplicate id")
	}
	left, ok := toText(rec["left"])
	if !ok || strings.TrimSpace(left) == "" {
		return model.Statement{}, fail("missing left")
	}
	right, ok := toText(rec["right"])
	if !ok || strings.TrimSpace(right) == "" {
		return model.Statement{}, fail("missing right")
	}
	if err := b.v.check(b.v.statement, rec); err != nil {
		return model.Statement{}, fail("%s", describe(err))
	}

	st := model.Statement{ID: id, Left: left, Right: right}
	st.Family, _ = rec["family"].(string)
	if st.Family == "" {
		st.Family = b.family
	}
	if st.Family == "" {
		st.Family = model.DefaultFamily
	}

	relation, _ := rec["relation"].(string)
	if relation == "" {
		relation = b.relation
	}
	rel, err := model.ParseRelation(relation)
	if err != nil {
		return model.Statement{}, fail("%v", err)
	}
	st.Relation = rel

	declared, _ := rec["symbols"].(map[string]any)
	if len(b.symbols)+len(declared) > 0 {
		st.Symbols = make(map[string]model.Domain, len(b.symbols)+len(declared))
	}
	for _, set := range []map[string]any{b.symbols, declared} {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			raw := set[name]
			if model.IsReservedConstant(name) {
				return model.Statement{}, fail("reserved constant %q cannot be declared as a symbol", name)
			}
			text, _ := raw.(string)
			d, err := model.ParseDomain(text)
			if err != nil {
				return model.Statement{}, fail("symbol %s: %v", name, err)
			}
			st.Symbols[name] = d
		}
	}

	st.Note, _ = rec["note"].(string)
	st.Source, _ = rec["source"].(string)
	b.seen[id] = true
	return st, nil
}

// toText renders a string or scalar number field as expression text
func toText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case *big.Int:
		return x.String(), true
	case *big.Float:
		return x.Text('g', -1), true
	}
	return "", false
}
