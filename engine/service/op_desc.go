package service

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwutils"
	"github.com/pkg/errors"
	"github.com/xiaonanln/typeconv"
)

// Param declares the name and default value of one operation parameter
type Param struct {
	Name    string
	Default interface{}
}

// P is a shorthand for declaring a parameter with a default
func P(name string, def interface{}) Param {
	return Param{Name: name, Default: def}
}

// ParamDeclarer is implemented by operation sets which accept keyword arguments or have defaults.
// The map is keyed by operation name
type ParamDeclarer interface {
	OperationParams() map[string][]Param
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type opDesc struct {
	Name         string
	Func         reflect.Value // bound method
	MethodType   reflect.Type
	NumArgs      int
	Params       []Param
	ReturnsValue bool
	ReturnsError bool
}

type opDescMap map[string]*opDesc

// visit registers a bound method of an operation set
func (odm opDescMap) visit(method reflect.Method, bound reflect.Value, params map[string][]Param) {
	opName := OperationName(method.Name)
	methodType := bound.Type()

	desc := &opDesc{
		Name:       opName,
		Func:       bound,
		MethodType: methodType,
		NumArgs:    methodType.NumIn(),
	}
	if methodType.IsVariadic() {
		gwlog.Fatalf("operation %s: variadic methods are not supported", opName)
	}

	switch methodType.NumOut() {
	case 0:
	case 1:
		if methodType.Out(0) == errorType {
			desc.ReturnsError = true
		} else {
			desc.ReturnsValue = true
		}
	case 2:
		if methodType.Out(1) != errorType {
			gwlog.Fatalf("operation %s: second return value must be error", opName)
		}
		desc.ReturnsValue = true
		desc.ReturnsError = true
	default:
		gwlog.Fatalf("operation %s returns %d values, at most 2 are supported", opName, methodType.NumOut())
	}

	desc.Params = make([]Param, desc.NumArgs)
	if declared, ok := params[opName]; ok {
		if len(declared) != desc.NumArgs {
			gwlog.Fatalf("operation %s declares %d parameters, but receives %d arguments", opName, len(declared), desc.NumArgs)
		}
		copy(desc.Params, declared)
	}

	odm[opName] = desc
}

// OperationName converts a Go method name to the wire name of the operation: IsPlayerSpeaking -> is_player_speaking
func OperationName(methodName string) string {
	runes := []rune(methodName)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// bind builds the argument list: positional args first, then keyword args by name, then defaults
func (desc *opDesc) bind(args []interface{}, kwargs map[string]interface{}) ([]reflect.Value, error) {
	if len(args) > desc.NumArgs {
		return nil, errors.Errorf("%s() takes %d arguments, but %d were given", desc.Name, desc.NumArgs, len(args))
	}

	used := 0
	in := make([]reflect.Value, desc.NumArgs)
	for i := 0; i < desc.NumArgs; i++ {
		param := desc.Params[i]
		argType := desc.MethodType.In(i)

		var value interface{}
		kwValue, hasKw := kwargs[param.Name]
		hasKw = hasKw && param.Name != ""
		if hasKw {
			used++
		}

		switch {
		case i < len(args):
			if hasKw {
				return nil, errors.Errorf("%s() got multiple values for argument %q", desc.Name, param.Name)
			}
			value = args[i]
		case hasKw:
			value = kwValue
		default:
			value = param.Default
		}

		v, err := convertArg(value, argType)
		if err != nil {
			name := param.Name
			if name == "" {
				name = "#" + strconv.Itoa(i)
			}
			return nil, errors.Wrapf(err, "%s() argument %s", desc.Name, name)
		}
		in[i] = v
	}

	if used < len(kwargs) {
		for key := range kwargs {
			if !desc.hasParam(key) {
				return nil, errors.Errorf("%s() got an unexpected keyword argument %q", desc.Name, key)
			}
		}
	}
	return in, nil
}

func (desc *opDesc) hasParam(name string) bool {
	for _, p := range desc.Params {
		if p.Name != "" && p.Name == name {
			return true
		}
	}
	return false
}

// call binds the arguments, calls the operation and splits its results
func (desc *opDesc) call(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	in, err := desc.bind(args, kwargs)
	if err != nil {
		return nil, err
	}

	out := desc.Func.Call(in)
	var value interface{}
	if desc.ReturnsValue {
		value = out[0].Interface()
	}
	if desc.ReturnsError {
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}
	return value, nil
}

// convertArg converts a decoded wire value to the parameter type.
// nil gives the zero value, numbers convert between numeric kinds, slices and maps convert element-wise
func convertArg(value interface{}, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		v2 := reflect.New(t).Elem()
		v2.Set(v)
		return v2, nil
	}

	switch {
	case isNumber(v.Kind()) && isNumber(t.Kind()):
		return v.Convert(t), nil
	case t.Kind() == reflect.Slice && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array):
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertArg(v.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "element %d", i)
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	case t.Kind() == reflect.Map && v.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := convertArg(iter.Key().Interface(), t.Key())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "key %v", iter.Key())
			}
			elem, err := convertArg(iter.Value().Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "value of %v", iter.Key())
			}
			out.SetMapIndex(key, elem)
		}
		return out, nil
	}

	var converted reflect.Value
	err := gwutils.CatchPanic(func() error {
		converted = typeconv.Convert(value, t)
		return nil
	})
	if err != nil || !converted.IsValid() || !converted.Type().AssignableTo(t) {
		return reflect.Value{}, errors.Errorf("cannot convert %T to %s", value, t)
	}
	return converted, nil
}

func isNumber(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
