// Package hooks provides the lifecycle hook system that instrumented
// servers use to let observers see transaction activity.
package hooks

import "sync"

// HookPos defines a position in the request lifecycle that hooks can
// attach to.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site
// that a hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
}

// Hook is a short piece of program that can be invoked by a hookable
// object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// InvokeHook triggers the registered hooks.
	InvokeHook(ctx HookCtx)
}

// A HookableBase provides some utility function for other types that
// implement the Hookable interface. Unlike a single-threaded event
// loop, hooks here are invoked from concurrently running request
// flows, so the hook list is guarded.
type HookableBase struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.hooks = make([]Hook, 0)
	return h
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.hooks)
}

// Hooks returns the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	h.mu.RLock()
	defer h.mu.RUnlock()

	hooks := make([]Hook, len(h.hooks))
	copy(hooks, h.hooks)

	return hooks
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	h.mu.RLock()
	hooks := h.hooks
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook.Func(ctx)
	}
}
