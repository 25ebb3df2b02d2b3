package mapengine

import (
	"fmt"
	"math"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
)

// EvalContext - всё, что выражение может прочитать
type EvalContext struct {
	Zoom         float64
	Properties   map[string]any
	ID           any
	GeometryType string
}

// FeatureContext собирает контекст вычисления для фичи на заданном зуме
func FeatureContext(f *geojson.Feature, zoom float64) EvalContext {
	ctx := EvalContext{Zoom: zoom}
	if f == nil {
		return ctx
	}
	ctx.Properties = f.Properties
	ctx.ID = f.ID
	if f.Geometry != nil {
		ctx.GeometryType = string(f.Geometry.Type)
	}
	return ctx
}

// Evaluate вычисляет выражение Mapbox GL.
// Поддерживается подмножество, которое используют наши слои.
func Evaluate(expr any, ctx EvalContext) (any, error) {
	arr, ok := asArray(expr)
	if !ok {
		return expr, nil
	}
	if len(arr) == 0 {
		return arr, nil
	}
	op, ok := arr[0].(string)
	if !ok {
		// массив значений, например icon-offset [0, 0]
		return arr, nil
	}
	args := arr[1:]

	switch op {
	case "literal":
		if len(args) != 1 {
			return nil, fmt.Errorf("literal: expected 1 argument, got %d", len(args))
		}
		return args[0], nil

	case "get":
		if len(args) != 1 {
			return nil, fmt.Errorf("get: expected 1 argument, got %d", len(args))
		}
		key, err := evalString(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return ctx.Properties[key], nil

	case "has":
		if len(args) != 1 {
			return nil, fmt.Errorf("has: expected 1 argument, got %d", len(args))
		}
		key, err := evalString(args[0], ctx)
		if err != nil {
			return nil, err
		}
		_, exists := ctx.Properties[key]
		return exists, nil

	case "id":
		return ctx.ID, nil

	case "geometry-type":
		return ctx.GeometryType, nil

	case "zoom":
		return ctx.Zoom, nil

	case "!":
		if len(args) != 1 {
			return nil, fmt.Errorf("!: expected 1 argument, got %d", len(args))
		}
		v, err := Evaluate(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil

	case "==", "!=":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", op, len(args))
		}
		a, err := Evaluate(args[0], ctx)
		if err != nil {
			return nil, err
		}
		b, err := Evaluate(args[1], ctx)
		if err != nil {
			return nil, err
		}
		eq := valuesEqual(a, b)
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil

	case "<", "<=", ">", ">=":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", op, len(args))
		}
		a, err := evalNumber(args[0], ctx)
		if err != nil {
			return nil, err
		}
		b, err := evalNumber(args[1], ctx)
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			return a < b, nil
		case "<=":
			return a <= b, nil
		case ">":
			return a > b, nil
		default:
			return a >= b, nil
		}

	case "all":
		for _, a := range args {
			v, err := Evaluate(a, ctx)
			if err != nil {
				return nil, err
			}
			if !truthy(v) {
				return false, nil
			}
		}
		return true, nil

	case "any":
		for _, a := range args {
			v, err := Evaluate(a, ctx)
			if err != nil {
				return nil, err
			}
			if truthy(v) {
				return true, nil
			}
		}
		return false, nil

	case "case":
		if len(args) < 3 || len(args)%2 == 0 {
			return nil, fmt.Errorf("case: expected condition/output pairs and a fallback")
		}
		for i := 0; i+1 < len(args); i += 2 {
			cond, err := Evaluate(args[i], ctx)
			if err != nil {
				return nil, err
			}
			if truthy(cond) {
				return Evaluate(args[i+1], ctx)
			}
		}
		return Evaluate(args[len(args)-1], ctx)

	case "coalesce":
		for _, a := range args {
			v, err := Evaluate(a, ctx)
			if err != nil {
				return nil, err
			}
			if v != nil {
				return v, nil
			}
		}
		return nil, nil

	case "to-string":
		if len(args) != 1 {
			return nil, fmt.Errorf("to-string: expected 1 argument, got %d", len(args))
		}
		v, err := Evaluate(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return toString(v), nil

	case "step":
		return evalStep(args, ctx)

	case "interpolate":
		return evalInterpolate(args, ctx)

	default:
		return nil, fmt.Errorf("unsupported expression operator %q", op)
	}
}

// EvaluateNumber - Evaluate с приведением к числу
func EvaluateNumber(expr any, ctx EvalContext) (float64, error) {
	return evalNumber(expr, ctx)
}

// MatchesFilter проверяет фильтр слоя; пустой фильтр пропускает всё
func MatchesFilter(filter Expr, ctx EvalContext) bool {
	if len(filter) == 0 {
		return true
	}
	v, err := Evaluate(filter, ctx)
	if err != nil {
		return false
	}
	return truthy(v)
}

func evalStep(args []any, ctx EvalContext) (any, error) {
	if len(args) < 2 || len(args)%2 != 0 {
		return nil, fmt.Errorf("step: expected input, base output and stop/output pairs")
	}
	input, err := evalNumber(args[0], ctx)
	if err != nil {
		return nil, err
	}

	out := args[1]
	for i := 2; i+1 < len(args); i += 2 {
		stop, ok := toFloat(args[i])
		if !ok {
			return nil, fmt.Errorf("step: stop %v is not a number", args[i])
		}
		if input < stop {
			break
		}
		out = args[i+1]
	}
	return Evaluate(out, ctx)
}

func evalInterpolate(args []any, ctx EvalContext) (any, error) {
	if len(args) < 4 || len(args)%2 != 0 {
		return nil, fmt.Errorf("interpolate: expected type, input and stop/output pairs")
	}

	kind, ok := asArray(args[0])
	if !ok || len(kind) == 0 {
		return nil, fmt.Errorf("interpolate: invalid interpolation type")
	}
	base := 1.0
	switch kind[0] {
	case "linear":
	case "exponential":
		if len(kind) != 2 {
			return nil, fmt.Errorf("interpolate: exponential needs a base")
		}
		b, ok := toFloat(kind[1])
		if !ok {
			return nil, fmt.Errorf("interpolate: exponential base is not a number")
		}
		base = b
	default:
		return nil, fmt.Errorf("interpolate: unsupported type %v", kind[0])
	}

	input, err := evalNumber(args[1], ctx)
	if err != nil {
		return nil, err
	}

	stops := args[2:]
	n := len(stops) / 2
	stopAt := func(i int) (float64, error) {
		s, ok := toFloat(stops[2*i])
		if !ok {
			return 0, fmt.Errorf("interpolate: stop %v is not a number", stops[2*i])
		}
		return s, nil
	}
	outAt := func(i int) (float64, error) {
		return evalNumber(stops[2*i+1], ctx)
	}

	first, err := stopAt(0)
	if err != nil {
		return nil, err
	}
	if input <= first {
		return outAt(0)
	}
	last, err := stopAt(n - 1)
	if err != nil {
		return nil, err
	}
	if input >= last {
		return outAt(n - 1)
	}

	for i := 0; i < n-1; i++ {
		lo, err := stopAt(i)
		if err != nil {
			return nil, err
		}
		hi, err := stopAt(i + 1)
		if err != nil {
			return nil, err
		}
		if input < lo || input > hi {
			continue
		}
		a, err := outAt(i)
		if err != nil {
			return nil, err
		}
		b, err := outAt(i + 1)
		if err != nil {
			return nil, err
		}
		t := interpolationFactor(input, base, lo, hi)
		return a + (b-a)*t, nil
	}

	return outAt(n - 1)
}

func interpolationFactor(input, base, lo, hi float64) float64 {
	diff := hi - lo
	if diff == 0 {
		return 0
	}
	progress := input - lo
	if base == 1 {
		return progress / diff
	}
	return (math.Pow(base, progress) - 1) / (math.Pow(base, diff) - 1)
}

func evalNumber(expr any, ctx EvalContext) (float64, error) {
	v, err := Evaluate(expr, ctx)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	return f, nil
}

func evalString(expr any, ctx EvalContext) (string, error) {
	v, err := Evaluate(expr, ctx)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func asArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []string:
		out := make([]any, len(a))
		for i, s := range a {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	default:
		return true
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	default:
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprint(v)
	}
}

// Конструкторы выражений

func Get(key string) Expr         { return Expr{"get", key} }
func Has(key string) Expr         { return Expr{"has", key} }
func Not(e any) Expr              { return Expr{"!", e} }
func Eq(a, b any) Expr            { return Expr{"==", a, b} }
func Literal(v any) Expr          { return Expr{"literal", v} }
func ToString(e any) Expr         { return Expr{"to-string", e} }
func Zoom() Expr                  { return Expr{"zoom"} }
func All(conds ...any) Expr       { return append(Expr{"all"}, conds...) }
func Coalesce(values ...any) Expr { return append(Expr{"coalesce"}, values...) }

// Case: условие, значение, ..., значение по умолчанию
func Case(branches ...any) Expr { return append(Expr{"case"}, branches...) }

// Step: ["step", input, base, stop1, out1, ...]
func Step(input, base any, stops ...any) Expr {
	return append(Expr{"step", input, base}, stops...)
}

// InterpolateZoom: линейная интерполяция по зуму
func InterpolateZoom(stops ...any) Expr {
	return append(Expr{"interpolate", Expr{"linear"}, Zoom()}, stops...)
}
