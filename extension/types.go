package extension

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/x"
)

// Import associates a short package alias with its full path so that type
// names in ad-hoc invocations can use the alias form.
type Import struct {
	Package string
	PkgPath string
}

type Imports []*Import

func (i Imports) HasPkgPath(pkgPath string) bool {
	for _, imp := range i {
		if imp.PkgPath == pkgPath {
			return true
		}
	}
	return false
}

func (i Imports) PkgPath(pkg string) string {
	for _, imp := range i {
		if imp.Package == pkg {
			return imp.PkgPath
		}
	}
	return ""
}

// Types is a registry of Go types addressable by name.
type Types struct {
	x.Registry
	imports Imports
}

// Register adds a data type to the registry
func (t *Types) Register(dataType *x.Type) {
	if dataType.PkgPath != "" {
		if idx := strings.LastIndex(dataType.PkgPath, "/"); idx > 0 {
			pkgPath := dataType.PkgPath[:idx]
			if !t.imports.HasPkgPath(pkgPath) {
				t.imports = append(t.imports, &Import{Package: dataType.PkgPath[idx+1:], PkgPath: dataType.PkgPath})
			}
		}
	}
	t.Registry.Register(dataType)
}

// Lookup returns a data type from the registry; the name may carry a slice or
// map modifier prefix, e.g. "[]scraper.Article".
func (t *Types) Lookup(dataType string) *x.Type {
	typeModifier := ""
	if idx := strings.LastIndex(dataType, "]"); idx != -1 {
		typeModifier = dataType[:idx+1]
		dataType = dataType[idx+1:]
	}

	if idx := strings.LastIndex(dataType, "."); idx != -1 {
		pkg := dataType[:idx]
		typeName := dataType[idx+1:]
		if pkgPath := t.imports.PkgPath(pkg); pkgPath != "" {
			pkg = pkgPath
		}
		dataType = fmt.Sprintf("%s.%s", pkg, typeName)
	}
	ret := t.Registry.Lookup(dataType)
	if ret == nil {
		return nil
	}
	rType := ret.Type

	switch strings.TrimSpace(typeModifier) {
	case "[]":
		rType = reflect.SliceOf(rType)
	case "map[string]":
		rType = reflect.MapOf(reflect.TypeOf(""), rType)
	case "map[string][]":
		rType = reflect.MapOf(reflect.TypeOf(""), reflect.SliceOf(rType))
	}
	if rType != ret.Type {
		return x.NewType(rType)
	}
	return ret
}

// NewTypes creates a new types registry
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{Registry: *x.NewRegistry(options...)}
}
