// Package invoker dispatches calls to registered services by name. It
// converts loosely-typed input (JSON maps from the ops CLI) into each
// method's typed input struct and, after the method runs, calls an optional
// listener that can observe the data that flew through the call.
package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/viant/structology/conv"

	"github.com/paperlab/querybot/extension"
)

// Listener is invoked once a dispatched method completes. Implementations
// can log, collect metrics or perform any other side-effects they require.
//
// For convenience the listener is defined as a function type rather than an
// interface; callers can therefore pass a plain function literal.
type Listener func(service, method string, input, output interface{})

// StdoutListener serialises the input and output into JSON and prints them
// to standard output. Errors from json.Marshal are ignored on purpose – they
// indicate non-serialisable values.
func StdoutListener(service, method string, input, output interface{}) {
	if input != nil {
		in, _ := json.Marshal(input)
		fmt.Printf("%v.%v input: %s\n", service, method, in)
	}
	if output != nil {
		out, _ := json.Marshal(output)
		fmt.Printf("%v.%v output: %s\n", service, method, out)
	}
}

// Option is used to customise the invoker instance.
type Option func(*Service)

// WithListener overrides the listener invoked after every dispatched call.
// Passing nil disables the callback entirely.
func WithListener(l Listener) Option {
	return func(s *Service) {
		s.listener = l
	}
}

// Service dispatches calls to registered services.
type Service struct {
	actions   *extension.Actions
	converter *conv.Converter
	listener  Listener
}

// New creates a new invoker over the supplied action registry.
func New(actions *extension.Actions, opts ...Option) *Service {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true

	s := &Service{
		actions:   actions,
		converter: conv.NewConverter(options),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Invoke calls service.method with the supplied loosely-typed input and
// returns the method's typed output.
func (s *Service) Invoke(ctx context.Context, service, method string, rawInput interface{}) (interface{}, error) {
	target := s.actions.Lookup(service)
	if target == nil {
		return nil, fmt.Errorf("service %v not found", service)
	}
	if method == "" {
		return nil, fmt.Errorf("method not found for service %v", service)
	}
	executable, err := target.Method(method)
	if err != nil {
		return nil, fmt.Errorf("failed to find method %v for service %v: %w", method, service, err)
	}
	signature := target.Methods().Lookup(method)
	if signature == nil {
		return nil, fmt.Errorf("method %v has no signature on service %v", method, service)
	}

	input, err := s.typedValue(signature.Input, rawInput)
	if err != nil {
		return nil, fmt.Errorf("invalid input for %v.%v: %w", service, method, err)
	}
	output, err := s.typedValue(signature.Output, map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	if err = executable(ctx, input, output); err != nil {
		return nil, err
	}
	if s.listener != nil {
		s.listener(service, method, input, output)
	}
	return output, nil
}

func (s *Service) typedValue(target reflect.Type, value interface{}) (interface{}, error) {
	if target == nil {
		return nil, fmt.Errorf("signature type is nil")
	}
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	ret := reflect.New(target).Interface()
	if value == nil {
		return ret, nil
	}
	if err := s.converter.Convert(value, ret); err != nil {
		return nil, err
	}
	return ret, nil
}
