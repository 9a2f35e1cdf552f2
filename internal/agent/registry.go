package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"reflect"

	"github.com/chris/wulang/internal/llm"
)

// Sentinel results handed to the model in place of real tool output.
const (
	ToolErrorResult = "Error executing database query"
	NoResult        = "No result"
)

// Tool is a capability the model may invoke mid-generation.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema
	Execute     func(ctx context.Context, params map[string]any) (any, error)
}

// Registry is an ordered set of tools.
type Registry struct {
	tools []Tool
	index map[string]int
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing any tool with the same name in place.
func (r *Registry) Register(t Tool) {
	if i, ok := r.index[t.Name]; ok {
		r.tools[i] = t
		return
	}
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

func (r *Registry) Len() int { return len(r.tools) }

func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Subset returns a registry holding only the named tools, in registry order.
func (r *Registry) Subset(names ...string) *Registry {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	sub := NewRegistry()
	for _, t := range r.tools {
		if want[t.Name] {
			sub.Register(t)
		}
	}
	return sub
}

// Definitions describes the tools to the provider.
func (r *Registry) Definitions() []llm.Tool {
	out := make([]llm.Tool, len(r.tools))
	for i, t := range r.tools {
		params := t.Parameters
		if params == nil {
			params = llm.Obj(nil)
		}
		out[i] = llm.Tool{Name: t.Name, Description: t.Description, Parameters: params}
	}
	return out
}

// Execute runs a tool and renders its output as text for the model. It never
// fails: errors and panics become ToolErrorResult, empty output NoResult.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (out string) {
	i, ok := r.index[name]
	if !ok {
		log.Printf("tool %s: unknown tool", name)
		return ToolErrorResult
	}
	t := r.tools[i]

	defer func() {
		if p := recover(); p != nil {
			log.Printf("tool %s: panic: %v", name, p)
			out = ToolErrorResult
		}
	}()

	result, err := t.Execute(ctx, params)
	if err != nil {
		log.Printf("tool %s: %v", name, err)
		return ToolErrorResult
	}
	if isEmpty(result) {
		return NoResult
	}
	if s, ok := result.(string); ok {
		return s
	}
	b, err := json.Marshal(result)
	if err != nil {
		log.Printf("tool %s: encoding result: %v", name, err)
		return ToolErrorResult
	}
	return string(b)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Param extraction helpers. LLMs send numbers as float64 in JSON.
func getInt(params map[string]any, key string) (int64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func getString(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func requireString(params map[string]any, key string) (string, error) {
	s, ok := getString(params, key)
	if !ok || s == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return s, nil
}

func requireInt(params map[string]any, key string) (int64, error) {
	n, ok := getInt(params, key)
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
