package agent

import "context"

// Hook observes plugin invocations. Hooks run synchronously in registration
// order on the calling goroutine, before and after each call.
type Hook interface {
	BeforeInvoke(ctx context.Context, plugin string, args map[string]any)
	AfterInvoke(ctx context.Context, plugin string, result string, err error)
}

// HookFuncs adapts two optional functions into a Hook.
type HookFuncs struct {
	Before func(ctx context.Context, plugin string, args map[string]any)
	After  func(ctx context.Context, plugin string, result string, err error)
}

func (h HookFuncs) BeforeInvoke(ctx context.Context, plugin string, args map[string]any) {
	if h.Before != nil {
		h.Before(ctx, plugin, args)
	}
}

func (h HookFuncs) AfterInvoke(ctx context.Context, plugin string, result string, err error) {
	if h.After != nil {
		h.After(ctx, plugin, result, err)
	}
}
