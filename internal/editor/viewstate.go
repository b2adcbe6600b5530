package editor

import "sync"

// ViewState is a side table of transient per-node presentation state keyed
// by node identity: selection, hover, an in-progress resize. It never
// touches the document tree and is never serialized. Entries for nodes that
// leave the tree are pruned after every edit.
type ViewState struct {
	mu      sync.Mutex
	entries map[string]map[string]any
}

// NewViewState creates an empty side table.
func NewViewState() *ViewState {
	return &ViewState{entries: map[string]map[string]any{}}
}

// Set records a value under the node's identity.
func (v *ViewState) Set(nodeID, key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e := v.entries[nodeID]
	if e == nil {
		e = map[string]any{}
		v.entries[nodeID] = e
	}
	e[key] = value
}

// Get returns the value recorded for the node, if any.
func (v *ViewState) Get(nodeID, key string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[nodeID]
	if !ok {
		return nil, false
	}
	val, ok := e[key]
	return val, ok
}

// Delete drops one key for the node.
func (v *ViewState) Delete(nodeID, key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if e, ok := v.entries[nodeID]; ok {
		delete(e, key)
		if len(e) == 0 {
			delete(v.entries, nodeID)
		}
	}
}

// Prune drops state for every node identity not in the live set.
func (v *ViewState) Prune(live map[string]struct{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id := range v.entries {
		if _, ok := live[id]; !ok {
			delete(v.entries, id)
		}
	}
}

// Len returns the number of nodes carrying state.
func (v *ViewState) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}
