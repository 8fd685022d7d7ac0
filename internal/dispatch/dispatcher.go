package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var ErrNoHandler = errors.New("no handler registered for request type")

type handlerFunc func(ctx context.Context, req any) (any, error)

// Dispatcher routes a request value to the single handler registered for its
// concrete type. Registration happens once at startup; Dispatch is safe for
// concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]handlerFunc
}

func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[reflect.Type]handlerFunc)}
}

// Register binds a handler to the request type Req. Registering two handlers
// for the same type is a wiring bug and panics at startup.
func Register[Req any, T any](d *Dispatcher, h func(ctx context.Context, req Req) (Result[T], error)) {
	t := reflect.TypeOf((*Req)(nil)).Elem()

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.handlers[t]; dup {
		panic(fmt.Sprintf("dispatch: handler already registered for %s", t))
	}
	d.handlers[t] = func(ctx context.Context, req any) (any, error) {
		return h(ctx, req.(Req))
	}
}

// Dispatch invokes the handler for req's type and returns its result
// untouched. The result is type-erased here; Send restores the type.
func (d *Dispatcher) Dispatch(ctx context.Context, req any) (any, error) {
	t := reflect.TypeOf(req)

	d.mu.RLock()
	h, ok := d.handlers[t]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, t)
	}
	return h(ctx, req)
}

// Send is the typed entry point used by the transport layer.
func Send[Req any, T any](ctx context.Context, d *Dispatcher, req Req) (Result[T], error) {
	out, err := d.Dispatch(ctx, req)
	if err != nil {
		return Result[T]{}, err
	}
	res, ok := out.(Result[T])
	if !ok {
		return Result[T]{}, fmt.Errorf("dispatch: handler for %T returned %T, want %T", req, out, res)
	}
	return res, nil
}
