package evaluator

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/registry"
)

// callHandler invokes a registered apply handler reflectively, converting
// panics into errors so no transform failure escapes evaluation.
func callHandler(ctx context.Context, handler *registry.RegisteredModifier, in *modifier.Inputs, params any) (out *pattern.Pattern, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("apply handler panicked | %v", r)
		}
	}()

	fn := reflect.ValueOf(handler.Fn)
	callArgs := []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(in)}
	if params == nil {
		callArgs = append(callArgs, reflect.Zero(fn.Type().In(2)))
	} else {
		callArgs = append(callArgs, reflect.ValueOf(params))
	}

	results := fn.Call(callArgs)
	patternResult, errResult := results[0].Interface(), results[1].Interface()
	if errResult != nil {
		return nil, errResult.(error)
	}
	if patternResult == nil {
		return nil, nil
	}
	p, ok := patternResult.(*pattern.Pattern)
	if !ok {
		return nil, fmt.Errorf("apply handler returned %T, want *pattern.Pattern", patternResult)
	}
	return p, nil
}
