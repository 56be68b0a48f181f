package readmodel

import (
	"context"
	"fmt"
	"time"
)

// Router sends each query kind to the backend that serves it and bounds
// every call with the kind's timeout.
type Router struct {
	backends       map[QueryKind]Gateway
	timeouts       map[QueryKind]time.Duration
	defaultTimeout time.Duration
}

func NewRouter(defaultTimeout time.Duration) *Router {
	return &Router{
		backends:       make(map[QueryKind]Gateway),
		timeouts:       make(map[QueryKind]time.Duration),
		defaultTimeout: defaultTimeout,
	}
}

// Route registers gw for the given kinds.
func (r *Router) Route(gw Gateway, kinds ...QueryKind) *Router {
	for _, k := range kinds {
		r.backends[k] = gw
	}
	return r
}

// Timeout overrides the call timeout for one kind.
func (r *Router) Timeout(kind QueryKind, d time.Duration) *Router {
	r.timeouts[kind] = d
	return r
}

func (r *Router) Fetch(ctx context.Context, kind QueryKind, key string) Result {
	gw, ok := r.backends[kind]
	if !ok {
		return FailedResult(fmt.Errorf("no backend for query %s", kind))
	}
	timeout := r.defaultTimeout
	if d, ok := r.timeouts[kind]; ok {
		timeout = d
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return gw.Fetch(ctx, kind, key)
}
