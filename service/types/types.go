package types

import (
	"context"
	"reflect"
	"strings"
)

// Service is the contract every action service (ollama, vector, telegram,
// secret, ...) implements so that it can be registered and invoked by name.
type Service interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}

// Executable is an invocable service method.
type Executable func(ctx context.Context, input, output interface{}) error

type Signatures []Signature

// Signature describes a single service method with its typed input/output.
type Signature struct {
	Name        string
	Description string
	Input       reflect.Type
	Output      reflect.Type
}

// Lookup matches the method name case-insensitively, mirroring how
// Service.Method implementations resolve executables.
func (s Signatures) Lookup(name string) *Signature {
	for i := range s {
		sig := &s[i]
		if strings.EqualFold(sig.Name, name) {
			return sig
		}
	}
	return nil
}
