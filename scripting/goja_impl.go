package scripting

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
)

// LabelFuncName is the function a label script must define.
const LabelFuncName = "label"

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	val, err := e.run(ctx, func() (goja.Value, error) {
		return e.vm.RunString(script)
	})
	if err != nil {
		return nil, err
	}
	return val.Export(), nil
}

// run executes fn with ctx wired to the runtime's interrupt.
func (e *GojaEngine) run(ctx context.Context, fn func() (goja.Value, error)) (goja.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := fn()
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val, nil
}

// LabelScript runs a user supplied `label(code, text)` function on every
// recognized glyph label.
type LabelScript struct {
	engine *GojaEngine
	fn     goja.Callable
}

// CompileLabelScript evaluates src and resolves its label function.
func CompileLabelScript(ctx context.Context, src string) (*LabelScript, error) {
	engine := NewEngine()
	if _, err := engine.Execute(ctx, src); err != nil {
		return nil, fmt.Errorf("evaluate label script: %w", err)
	}
	fn, ok := goja.AssertFunction(engine.vm.Get(LabelFuncName))
	if !ok {
		return nil, fmt.Errorf("label script must define function %s(code, text)", LabelFuncName)
	}
	return &LabelScript{engine: engine, fn: fn}, nil
}

// Apply calls label(code, text). A null or undefined result drops the label;
// any other value is converted to a string.
func (s *LabelScript) Apply(ctx context.Context, code uint32, text string) (string, bool, error) {
	vm := s.engine.vm
	val, err := s.engine.run(ctx, func() (goja.Value, error) {
		return s.fn(goja.Undefined(), vm.ToValue(code), vm.ToValue(text))
	})
	if err != nil {
		return "", false, fmt.Errorf("label script for %d: %w", code, err)
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return "", false, nil
	}
	return val.String(), true, nil
}
