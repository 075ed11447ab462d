// Package registry is the catalog of callable actions: each action
// carries a handler, a strict parameter contract, and a machine-readable
// description consumed by the planner's prompt. Capabilities are injected
// once at startup; handlers are closures over the registry and never
// touch globals.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"deskpilot/internal/capability"
	"deskpilot/internal/logging"
	"deskpilot/internal/protocol"
	"deskpilot/internal/vision"
)

// Category classifies actions for the planner's library.
type Category string

const (
	CategoryKeyboard  Category = "keyboard"
	CategoryMouse     Category = "mouse"
	CategoryWindow    Category = "window"
	CategoryBrowser   Category = "browser"
	CategoryClipboard Category = "clipboard"
	CategoryFile      Category = "file"
	CategoryScreen    Category = "screen"
	CategoryTiming    Category = "timing"
	CategoryVision    Category = "vision"
	CategorySystem    Category = "system"
	CategoryEdit      Category = "edit"
	CategoryMacro     Category = "macro"
)

// Handler executes one action with already-substituted parameters.
// The return value is opaque to the executor; verify handlers return
// *vision.Result which triggers the adaptive re-binding side effect.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// Spec describes one registered action.
type Spec struct {
	Name        string
	Category    Category
	Description string
	Handler     Handler

	// RequiredParams lists parameter names that must be supplied, in
	// documentation order.
	RequiredParams []string

	// OptionalParams maps parameter names to their defaults, merged
	// under supplied params on dispatch.
	OptionalParams map[string]any

	// Returns maps result field names to type hints for the planner.
	Returns map[string]string

	// Examples are complete JSON action snippets for the planner prompt.
	Examples []string
}

// Verifier is the visual-verification dependency of the vision actions.
// vision.Verifier implements it.
type Verifier interface {
	Verify(ctx context.Context, req vision.Request) *vision.Result
}

// Navigator runs the bus-backed visual navigation loop on behalf of the
// navigate action. The actuator provides the implementation.
type Navigator interface {
	Navigate(ctx context.Context, task, goal string, maxIterations int) (any, error)
}

// Registry holds all registered actions and the injected capabilities.
type Registry struct {
	mu         sync.RWMutex
	actions    map[string]*Spec
	byCategory map[Category][]*Spec

	depMu     sync.RWMutex
	keyboard  capability.Keyboard
	pointer   capability.Pointer
	screen    capability.ScreenCapture
	clipboard capability.Clipboard
	system    capability.System
	verifier  Verifier
	navigator Navigator
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		actions:    make(map[string]*Spec),
		byCategory: make(map[Category][]*Spec),
	}
}

// Register adds an action spec. Duplicate names are rejected.
func (r *Registry) Register(spec *Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("action name cannot be empty")
	}
	if spec.Handler == nil && spec.Name != protocol.ActionMacro {
		return fmt.Errorf("action %s has no handler", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, spec.Name)
	}
	r.actions[spec.Name] = spec
	r.byCategory[spec.Category] = append(r.byCategory[spec.Category], spec)

	logging.RegistryDebug("registered action: %s (category=%s)", spec.Name, spec.Category)
	return nil
}

// MustRegister registers a spec and panics on error. Used for the static
// catalog at startup.
func (r *Registry) MustRegister(spec *Spec) {
	if err := r.Register(spec); err != nil {
		panic(fmt.Sprintf("failed to register action %s: %v", spec.Name, err))
	}
}

// Get returns a spec by name, or nil.
func (r *Registry) Get(name string) *Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actions[name]
}

// Has implements protocol.Catalog.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[name]
	return ok
}

// Info implements protocol.Catalog.
func (r *Registry) Info(name string) (protocol.ActionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.actions[name]
	if !ok {
		return protocol.ActionInfo{}, false
	}
	return protocol.ActionInfo{
		Required: spec.RequiredParams,
		Optional: spec.OptionalParams,
	}, true
}

// Names returns all registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Execute dispatches one action by name. Defaults are merged under the
// supplied params; the handler's return value passes through unchanged.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (any, error) {
	spec := r.Get(name)
	if spec == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	if spec.Name == protocol.ActionMacro {
		return nil, ErrMacroNotDirect
	}

	merged, err := r.mergeParams(spec, params)
	if err != nil {
		return nil, err
	}

	logging.RegistryDebug("executing action: %s", name)
	result, err := callHandler(ctx, spec, merged)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// callHandler invokes the handler, converting errors and panics into
// handler_failed.
func callHandler(ctx context.Context, spec *Spec, params map[string]any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrHandlerFailed, spec.Name, rec)
		}
	}()

	result, herr := spec.Handler(ctx, params)
	if herr != nil {
		// Double-wrap so callers can match both handler_failed and the
		// underlying kind (e.g. timeout).
		return nil, fmt.Errorf("%w: %s: %w", ErrHandlerFailed, spec.Name, herr)
	}
	return result, nil
}

// mergeParams checks the parameter contract and overlays defaults under
// the supplied values.
func (r *Registry) mergeParams(spec *Spec, params map[string]any) (map[string]any, error) {
	for _, req := range spec.RequiredParams {
		if _, ok := params[req]; !ok {
			return nil, fmt.Errorf("%w: %s requires %q", ErrMissingParameter, spec.Name, req)
		}
	}

	known := make(map[string]bool, len(spec.RequiredParams)+len(spec.OptionalParams))
	for _, req := range spec.RequiredParams {
		known[req] = true
	}
	for opt := range spec.OptionalParams {
		known[opt] = true
	}
	for name := range params {
		if !known[name] {
			return nil, fmt.Errorf("%w: %s does not accept %q", ErrUnknownParameter, spec.Name, name)
		}
	}

	merged := make(map[string]any, len(params)+len(spec.OptionalParams))
	for name, def := range spec.OptionalParams {
		merged[name] = def
	}
	for name, value := range params {
		merged[name] = value
	}
	return merged, nil
}

// Description is the JSON-serializable view of one action, the contract
// between the planning prompt and the action surface.
type Description struct {
	Name           string            `json:"name"`
	Category       string            `json:"category"`
	Description    string            `json:"description"`
	RequiredParams []string          `json:"required_params"`
	OptionalParams map[string]any    `json:"optional_params,omitempty"`
	Returns        map[string]string `json:"returns,omitempty"`
	Examples       []string          `json:"examples,omitempty"`
}

// Describe returns the machine-readable action library keyed by name.
func (r *Registry) Describe() map[string]Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Description, len(r.actions))
	for name, spec := range r.actions {
		out[name] = Description{
			Name:           spec.Name,
			Category:       string(spec.Category),
			Description:    spec.Description,
			RequiredParams: spec.RequiredParams,
			OptionalParams: spec.OptionalParams,
			Returns:        spec.Returns,
			Examples:       spec.Examples,
		}
	}
	return out
}

// Dependency injection. Each setter may be called exactly once.

func (r *Registry) SetKeyboard(k capability.Keyboard) error {
	r.depMu.Lock()
	defer r.depMu.Unlock()
	if r.keyboard != nil {
		return fmt.Errorf("%w: keyboard", ErrAlreadyWired)
	}
	r.keyboard = k
	return nil
}

func (r *Registry) SetPointer(p capability.Pointer) error {
	r.depMu.Lock()
	defer r.depMu.Unlock()
	if r.pointer != nil {
		return fmt.Errorf("%w: pointer", ErrAlreadyWired)
	}
	r.pointer = p
	return nil
}

func (r *Registry) SetScreen(s capability.ScreenCapture) error {
	r.depMu.Lock()
	defer r.depMu.Unlock()
	if r.screen != nil {
		return fmt.Errorf("%w: screen", ErrAlreadyWired)
	}
	r.screen = s
	return nil
}

func (r *Registry) SetClipboard(c capability.Clipboard) error {
	r.depMu.Lock()
	defer r.depMu.Unlock()
	if r.clipboard != nil {
		return fmt.Errorf("%w: clipboard", ErrAlreadyWired)
	}
	r.clipboard = c
	return nil
}

func (r *Registry) SetSystem(s capability.System) error {
	r.depMu.Lock()
	defer r.depMu.Unlock()
	if r.system != nil {
		return fmt.Errorf("%w: system", ErrAlreadyWired)
	}
	r.system = s
	return nil
}

func (r *Registry) SetVerifier(v Verifier) error {
	r.depMu.Lock()
	defer r.depMu.Unlock()
	if r.verifier != nil {
		return fmt.Errorf("%w: verifier", ErrAlreadyWired)
	}
	r.verifier = v
	return nil
}

func (r *Registry) SetNavigator(n Navigator) error {
	r.depMu.Lock()
	defer r.depMu.Unlock()
	if r.navigator != nil {
		return fmt.Errorf("%w: navigator", ErrAlreadyWired)
	}
	r.navigator = n
	return nil
}

// Capability accessors for handlers.

func (r *Registry) kb() (capability.Keyboard, error) {
	r.depMu.RLock()
	defer r.depMu.RUnlock()
	if r.keyboard == nil {
		return nil, fmt.Errorf("%w: keyboard", ErrNotWired)
	}
	return r.keyboard, nil
}

func (r *Registry) ptr() (capability.Pointer, error) {
	r.depMu.RLock()
	defer r.depMu.RUnlock()
	if r.pointer == nil {
		return nil, fmt.Errorf("%w: pointer", ErrNotWired)
	}
	return r.pointer, nil
}

func (r *Registry) scr() (capability.ScreenCapture, error) {
	r.depMu.RLock()
	defer r.depMu.RUnlock()
	if r.screen == nil {
		return nil, fmt.Errorf("%w: screen", ErrNotWired)
	}
	return r.screen, nil
}

func (r *Registry) clip() (capability.Clipboard, error) {
	r.depMu.RLock()
	defer r.depMu.RUnlock()
	if r.clipboard == nil {
		return nil, fmt.Errorf("%w: clipboard", ErrNotWired)
	}
	return r.clipboard, nil
}

func (r *Registry) sys() (capability.System, error) {
	r.depMu.RLock()
	defer r.depMu.RUnlock()
	if r.system == nil {
		return nil, fmt.Errorf("%w: system", ErrNotWired)
	}
	return r.system, nil
}

func (r *Registry) vrf() (Verifier, error) {
	r.depMu.RLock()
	defer r.depMu.RUnlock()
	if r.verifier == nil {
		return nil, fmt.Errorf("%w: verifier", ErrNotWired)
	}
	return r.verifier, nil
}

func (r *Registry) nav() (Navigator, error) {
	r.depMu.RLock()
	defer r.depMu.RUnlock()
	if r.navigator == nil {
		return nil, fmt.Errorf("%w: navigator", ErrNotWired)
	}
	return r.navigator, nil
}

// Interface conformance.
var _ protocol.Catalog = (*Registry)(nil)
