package schema

import (
	"fmt"
	"sort"

	"github.com/starford/laguz/internal/apperr"
)

// Registry holds the set of registered node and mark types. Parsing drops
// markup whose tag matches no registered spec; serialization only ever
// emits registered types.
type Registry struct {
	nodes     map[NodeType]*NodeSpec
	marks     map[MarkType]*MarkSpec
	nodeByTag map[string][]*NodeSpec
	markByTag map[string][]*MarkSpec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:     map[NodeType]*NodeSpec{},
		marks:     map[MarkType]*MarkSpec{},
		nodeByTag: map[string][]*NodeSpec{},
		markByTag: map[string][]*MarkSpec{},
	}
}

// RegisterNode adds a node spec. Registering the same type twice replaces
// the earlier spec.
func (r *Registry) RegisterNode(spec *NodeSpec) {
	r.nodes[spec.Type] = spec
	for _, tag := range spec.Tags {
		r.nodeByTag[tag] = append(r.nodeByTag[tag], spec)
	}
}

// RegisterMark adds a mark spec.
func (r *Registry) RegisterMark(spec *MarkSpec) {
	r.marks[spec.Type] = spec
	for _, tag := range spec.Tags {
		r.markByTag[tag] = append(r.markByTag[tag], spec)
	}
}

// Node returns the spec for a node type.
func (r *Registry) Node(t NodeType) (*NodeSpec, bool) {
	spec, ok := r.nodes[t]
	return spec, ok
}

// MustNode returns the spec for a node type and panics when unregistered.
// Reserved for built-in types wired at startup.
func (r *Registry) MustNode(t NodeType) *NodeSpec {
	spec, ok := r.nodes[t]
	if !ok {
		panic(fmt.Sprintf("schema: node type %q not registered", t))
	}
	return spec
}

// Mark returns the spec for a mark type.
func (r *Registry) Mark(t MarkType) (*MarkSpec, bool) {
	spec, ok := r.marks[t]
	return spec, ok
}

// NodesForTag returns candidate node specs for a markup tag, in
// registration order. The parser tries each spec's parse rule until one
// matches.
func (r *Registry) NodesForTag(tag string) []*NodeSpec {
	return r.nodeByTag[tag]
}

// MarksForTag returns candidate mark specs for a markup tag.
func (r *Registry) MarksForTag(tag string) []*MarkSpec {
	return r.markByTag[tag]
}

// NodeTypes returns all registered node types, sorted.
func (r *Registry) NodeTypes() []NodeType {
	out := make([]NodeType, 0, len(r.nodes))
	for t := range r.nodes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarkTypes returns all registered mark types, sorted.
func (r *Registry) MarkTypes() []MarkType {
	out := make([]MarkType, 0, len(r.marks))
	for t := range r.marks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FillDefaults resolves the spec for t and fills missing attributes from
// its schema.
func (r *Registry) FillDefaults(t NodeType, attrs Attrs) (Attrs, error) {
	spec, ok := r.nodes[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnknownNodeType, t)
	}
	return spec.FillDefaults(attrs), nil
}
