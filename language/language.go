// Package language describes the languages runpad can run and which
// execution strategy handles each of them.
package language

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// RunnerKind selects the execution strategy for a language.
type RunnerKind int

const (
	// InProcessScript runs source inside the host process through an
	// embedded scripting runtime.
	InProcessScript RunnerKind = iota + 1
	// EmbeddedInterpreter runs source through a WASM interpreter module.
	EmbeddedInterpreter
	// RemoteService sends source to the remote execution API.
	RemoteService
)

func (k RunnerKind) String() string {
	switch k {
	case InProcessScript:
		return "in-process-script"
	case EmbeddedInterpreter:
		return "embedded-interpreter"
	case RemoteService:
		return "remote-service"
	default:
		return fmt.Sprintf("RunnerKind(%d)", int(k))
	}
}

// MarshalText renders the kind the same way String does.
func (k RunnerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RemoteTarget names a language on the remote execution API.
type RemoteTarget struct {
	Language string `json:"language" yaml:"language"`
	Version  string `json:"version" yaml:"version"`
}

// Descriptor is the immutable description of one supported language.
type Descriptor struct {
	ID            string        `json:"id"`
	DisplayName   string        `json:"name"`
	Runner        RunnerKind    `json:"runner"`
	Extension     string        `json:"extension"`
	Version       string        `json:"version"`
	DefaultSource string        `json:"defaultSource"`
	Remote        *RemoteTarget `json:"remote,omitempty"`

	// EntryPoint marks languages whose source must be reordered so the
	// remote runner picks the class holding main.
	EntryPoint bool `json:"entryPoint,omitempty"`
}

// Registry is a fixed set of descriptors. It is not modified after
// construction and is safe for concurrent reads.
type Registry struct {
	order   []string
	byID    map[string]Descriptor
	aliases map[string]string
	byExt   map[string]string
}

// NewRegistry builds a registry. Duplicate IDs are rejected.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		byID:    make(map[string]Descriptor, len(descs)),
		aliases: make(map[string]string),
		byExt:   make(map[string]string),
	}
	for _, d := range descs {
		if d.ID == "" {
			return nil, fmt.Errorf("descriptor %q has no id", d.DisplayName)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate language id %q", d.ID)
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
		if d.Extension != "" {
			r.byExt["."+d.Extension] = d.ID
		}
	}
	return r, nil
}

func (r *Registry) alias(name, id string) {
	r.aliases[name] = id
}

// Lookup finds a descriptor by ID or alias, case-insensitively.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := r.aliases[key]; ok {
		key = id
	}
	d, ok := r.byID[key]
	return d, ok
}

// ForFile picks a descriptor from a file name's extension.
func (r *Registry) ForFile(name string) (Descriptor, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	id, ok := r.byExt[ext]
	if !ok {
		switch ext {
		case ".mjs":
			id, ok = "javascript", true
		case ".cc", ".cxx", ".hpp":
			id, ok = "cpp", true
		}
	}
	if !ok {
		return Descriptor{}, false
	}
	d, ok := r.byID[id]
	return d, ok
}

// All returns the descriptors in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns the registered language IDs, sorted.
func (r *Registry) IDs() []string {
	ids := append([]string(nil), r.order...)
	sort.Strings(ids)
	return ids
}

// Resolve looks a language up by explicit name first, then by file name.
func (r *Registry) Resolve(name, filename string) (Descriptor, error) {
	if name != "" {
		d, ok := r.Lookup(name)
		if !ok {
			return Descriptor{}, fmt.Errorf("unknown language %q: use one of %s", name, strings.Join(r.IDs(), ", "))
		}
		return d, nil
	}
	if filename != "" {
		if d, ok := r.ForFile(filename); ok {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("language required: use --lang (%s)", strings.Join(r.IDs(), ", "))
}

// WithRemote returns a copy of the registry whose remote targets are
// replaced by the given overrides, keyed by language ID.
func (r *Registry) WithRemote(overrides map[string]RemoteTarget) *Registry {
	out := &Registry{
		order:   r.order,
		byID:    make(map[string]Descriptor, len(r.byID)),
		aliases: r.aliases,
		byExt:   r.byExt,
	}
	for id, d := range r.byID {
		if t, ok := overrides[id]; ok && d.Runner == RemoteService {
			d.Remote = &t
		}
		out.byID[id] = d
	}
	return out
}
