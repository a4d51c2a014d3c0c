package scheme

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// KnownTypesRegistryInstance is the default registry, contracts register themselves here in init()
var KnownTypesRegistryInstance = NewKnownTypesRegistry()

type KnownTypesRegistry interface {
	AddKnownTypes(g Group, types ...Object)
	AddKnownTypeWithName(gk GroupKind, obj Object)
	// NewObject returns a zero value of the type registered for gk
	NewObject(gk GroupKind) (Object, error)
	// ObjectKind resolves the GroupKind an object was registered with
	ObjectKind(object Object) (*GroupKind, error)
}

func NewKnownTypesRegistry() KnownTypesRegistry {
	return &knownTypesRegistry{gkToType: map[GroupKind]reflect.Type{}, typeToGK: map[reflect.Type]GroupKind{}}
}

type knownTypesRegistry struct {
	gkToType map[GroupKind]reflect.Type
	typeToGK map[reflect.Type]GroupKind
}

func (r *knownTypesRegistry) AddKnownTypes(g Group, types ...Object) {
	for _, obj := range types {
		structType := GetStructType(obj)
		r.addKnownTypeWithName(GroupKind{
			Group: g,
			Kind:  structType.Name(),
		}, obj, structType)
	}
}

func (r *knownTypesRegistry) AddKnownTypeWithName(gk GroupKind, obj Object) {
	r.addKnownTypeWithName(gk, obj, GetStructType(obj))
}

func (r *knownTypesRegistry) NewObject(gk GroupKind) (Object, error) {
	t, exists := r.gkToType[gk]

	if !exists {
		return nil, errors.Errorf("type %s is not registered in KnownTypes", gk.String())
	}

	return reflect.New(t).Interface().(Object), nil
}

func (r *knownTypesRegistry) ObjectKind(obj Object) (*GroupKind, error) {
	structType := GetStructType(obj)
	gk, ok := r.typeToGK[structType]
	if !ok {
		return nil, errors.Errorf("no kind is registered in scheme for the type %s", structType.Name())
	}

	if gk.Empty() {
		return nil, errors.Errorf("empty GroupKind registered for the type %s", structType.Name())
	}

	return &gk, nil
}

func (r *knownTypesRegistry) addKnownTypeWithName(gk GroupKind, obj Object, structType reflect.Type) {
	if len(gk.Group) == 0 {
		panic(fmt.Sprintf("group is required on all types: %s %v", gk, structType))
	}

	if oldT, found := r.gkToType[gk]; found && oldT != structType {
		panic(fmt.Sprintf("double registration of different types for %v: old=%v.%v, new=%v.%v", gk, oldT.PkgPath(), oldT.Name(), structType.PkgPath(), structType.Name()))
	}

	r.gkToType[gk] = structType
	r.typeToGK[structType] = gk
	obj.SetGroupKind(&gk)
}

// GetStructType returns the non-pointer struct type of obj. Types at registration
// must not embed another Object on the first level, otherwise the embedded meta shadows its own.
func GetStructType(obj Object) reflect.Type {
	structType := reflect.TypeOf(obj)

	if structType.Kind() != reflect.Ptr {
		structType = reflect.PtrTo(structType)
	}

	structType = structType.Elem()
	if structType.Kind() != reflect.Struct {
		panic("all registered types must be pointers to structs")
	}

	if hasEmbeddedObject(structType) {
		panic("struct embeds another struct which implements Object, embed scheme.TypeMeta explicitly instead")
	}

	return structType
}

var objectType = reflect.TypeOf((*Object)(nil)).Elem()

func hasEmbeddedObject(structType reflect.Type) bool {
	for i := 0; i < structType.NumField(); i++ {
		fieldType := structType.Field(i).Type
		if fieldType.Kind() == reflect.Struct && fieldType != reflect.TypeOf(TypeMeta{}) && fieldType.Implements(objectType) {
			return true
		}
	}

	return false
}
