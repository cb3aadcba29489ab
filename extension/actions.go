package extension

import (
	"reflect"
	"sync"

	"github.com/paperlab/querybot/service/types"
	"github.com/viant/x"
)

// Actions holds the registered action services keyed by name.
type Actions struct {
	types    *Types
	services map[string]types.Service
	mux      sync.RWMutex
}

func (s *Actions) Types() *Types {
	return s.types
}

// Lookup returns a service by name
func (s *Actions) Lookup(name string) types.Service {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.services[name]
}

// Register registers a service and indexes its method input/output types so
// ad-hoc invocations can address them by name.
func (s *Actions) Register(service types.Service) {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, signature := range service.Methods() {
		s.registerType(signature.Input)
		s.registerType(signature.Output)
	}
	s.services[service.Name()] = service
}

func (s *Actions) registerType(rType reflect.Type) {
	if rType == nil {
		return
	}
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	if rType.Name() == "" || rType.PkgPath() == "" {
		return
	}
	s.types.Register(x.NewType(rType))
}

// Services returns the names of all registered services.
func (s *Actions) Services() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ret := make([]string, 0, len(s.services))
	for name := range s.services {
		ret = append(ret, name)
	}
	return ret
}

// NewActions creates a new action service registry
func NewActions(goTypes ...*x.Type) *Actions {
	ret := &Actions{
		types:    NewTypes(),
		services: make(map[string]types.Service),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
