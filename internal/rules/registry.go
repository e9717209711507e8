package rules

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is a rule catalog that remembers declaration order.
type Registry struct {
	mu    sync.RWMutex
	order []Rule
	byID  map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Rule)}
}

func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[rule.ID()]; exists {
		panic(fmt.Sprintf("rule %s already registered", rule.ID()))
	}
	r.byID[rule.ID()] = rule
	r.order = append(r.order, rule)
}

// List returns the rules in declaration order.
func (r *Registry) List() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.order...)
}

func (r *Registry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.byID[id]
	return rule, ok
}

// Resolve returns the rules named by a comma-separated list of IDs, in
// declaration order. An empty selector selects every rule.
func (r *Registry) Resolve(selector string) ([]Rule, error) {
	if strings.TrimSpace(selector) == "" {
		return r.List(), nil
	}
	want := make(map[string]struct{})
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := r.Get(id); !ok {
			return nil, fmt.Errorf("rule not found: %s", id)
		}
		want[id] = struct{}{}
	}
	var selected []Rule
	for _, rule := range r.List() {
		if _, ok := want[rule.ID()]; ok {
			selected = append(selected, rule)
		}
	}
	return selected, nil
}

var defaultRegistry = NewRegistry()

// Register adds r to the built-in catalog.
func Register(r Rule) { defaultRegistry.Register(r) }

func List() []Rule { return defaultRegistry.List() }

func Get(id string) (Rule, bool) { return defaultRegistry.Get(id) }

func Resolve(selector string) ([]Rule, error) { return defaultRegistry.Resolve(selector) }

// Default returns the built-in catalog.
func Default() *Registry { return defaultRegistry }
