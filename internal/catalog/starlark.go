package catalog

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// maxScriptSteps bounds a catalog script
const maxScriptSteps = 10_000_000

// decodeStarlark runs a catalog script. The script declares statements with
// statement(id=..., left=..., right=..., ...) and may set the name and
// defaults with catalog(name=..., family=..., relation=..., symbols={...}).
func decodeStarlark(ctx context.Context, filename string, data []byte) (document, error) {
	doc := document{defaults: map[string]any{}}

	statement := starlark.NewBuiltin("statement", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s: use keyword arguments", fn.Name())
		}
		rec, err := keywords(kwargs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		doc.records = append(doc.records, rec)
		return starlark.None, nil
	})

	catalog := starlark.NewBuiltin("catalog", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s: use keyword arguments", fn.Name())
		}
		fields, err := keywords(kwargs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		for key, value := range fields {
			switch key {
			case "name":
				name, ok := value.(string)
				if !ok {
					return nil, fmt.Errorf("%s: name must be a string", fn.Name())
				}
				doc.name = name
			case "family", "relation", "symbols":
				doc.defaults[key] = value
			default:
				return nil, fmt.Errorf("%s: unexpected keyword %s", fn.Name(), key)
			}
		}
		return starlark.None, nil
	})

	thread := &starlark.Thread{Name: filename}
	thread.SetMaxExecutionSteps(maxScriptSteps)
	stop := context.AfterFunc(ctx, func() { thread.Cancel(ctx.Err().Error()) })
	defer stop()

	predeclared := starlark.StringDict{
		"statement": statement,
		"catalog":   catalog,
	}
	if _, err := starlark.ExecFileOptions(&syntax.FileOptions{Set: true, While: true, TopLevelControl: true}, thread, filename, data, predeclared); err != nil {
		return document{}, fmt.Errorf("run %s: %w", filename, err)
	}
	if len(doc.defaults) == 0 {
		doc.defaults = nil
	}
	return doc, nil
}

func keywords(kwargs []starlark.Tuple) (map[string]any, error) {
	out := make(map[string]any, len(kwargs))
	for _, kv := range kwargs {
		key := string(kv[0].(starlark.String))
		v, err := fromStarlark(kv[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

func fromStarlark(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.String:
		return string(x), nil
	case starlark.Int:
		i, ok := x.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s out of range", x)
		}
		return i, nil
	case starlark.Float:
		return float64(x), nil
	case *starlark.List:
		out := make([]any, x.Len())
		for i := range x.Len() {
			e, err := fromStarlark(x.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			k, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key %s is not a string", item[0])
			}
			e, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			out[string(k)] = e
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", v.Type())
}
