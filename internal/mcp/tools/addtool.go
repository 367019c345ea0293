package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking that the zero value of its output
// type passes the schema the SDK infers for it.
//
// Panics if the check fails.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// OutputSchemaError describes an output type whose JSON encoding can
// disagree with the schema inferred for it.
type OutputSchemaError struct {
	Tool    string
	Type    reflect.Type
	Problem string
	Fix     string
}

func (e *OutputSchemaError) Error() string {
	return fmt.Sprintf("tool %q: output type %s: %s\n  fix: %s", e.Tool, e.Type, e.Problem, e.Fix)
}

// CheckOutputSchema panics with an *OutputSchemaError when T cannot be used
// as a tool output. The untyped "any" output is always accepted.
func CheckOutputSchema[T any](toolName string) {
	if err := checkOutput(toolName, reflect.TypeFor[T]()); err != nil {
		panic(err)
	}
}

// checkOutput catches the two mismatches seen in practice: a nil slice such
// as an empty types.ResultSet encodes as null where the schema says array,
// and json.RawMessage encodes inline but is inferred as a byte array.
// Inference failures are left for the SDK to report.
func checkOutput(toolName string, rt reflect.Type) error {
	if rt == reflect.TypeFor[any]() {
		return nil
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := rawMessagePaths(rt); len(paths) > 0 {
		return &OutputSchemaError{
			Tool:    toolName,
			Type:    rt,
			Problem: "json.RawMessage at " + strings.Join(paths, ", "),
			Fix:     "declare the field as any and fill it with types.ToAny",
		}
	}

	schema, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return nil
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return nil
	}
	var zero map[string]any
	if err := json.Unmarshal(data, &zero); err != nil {
		return nil
	}
	if err := resolved.Validate(&zero); err != nil {
		return &OutputSchemaError{
			Tool:    toolName,
			Type:    rt,
			Problem: fmt.Sprintf("zero value %s fails its schema: %v", data, err),
			Fix:     "tag nil-defaulting slices (result lists included) with omitzero, or initialize them",
		}
	}
	return nil
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// rawMessagePaths lists the field paths of t that hold json.RawMessage.
func rawMessagePaths(t reflect.Type) []string {
	type node struct {
		t    reflect.Type
		path []string
	}

	var found []string
	onPath := map[reflect.Type]int{}
	queue := []node{{t: t}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		for n.t.Kind() == reflect.Pointer {
			n.t = n.t.Elem()
		}
		if n.t == rawMessageType {
			found = append(found, strings.Join(n.path, "."))
			continue
		}
		// recursive types are walked a bounded number of times
		if onPath[n.t] > 1 {
			continue
		}
		onPath[n.t]++

		switch n.t.Kind() {
		case reflect.Struct:
			for i := range n.t.NumField() {
				if f := n.t.Field(i); f.IsExported() {
					queue = append(queue, node{f.Type, appendPath(n.path, f.Name)})
				}
			}
		case reflect.Slice, reflect.Array:
			queue = append(queue, node{n.t.Elem(), appendPath(n.path, "[]")})
		case reflect.Map:
			queue = append(queue, node{n.t.Elem(), appendPath(n.path, "[value]")})
		}
	}
	return found
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
