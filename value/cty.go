package value

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ToCty converts a value tree for HCL and cty consumers. Lists become
// tuples since their elements may differ in type; a PropertyList becomes a
// tuple of {name, value} objects; Bytes become a list of numbers.
func ToCty(v Value) (cty.Value, error) {
	switch v := v.(type) {
	case String:
		return cty.StringVal(string(v)), nil
	case List:
		elems := make([]cty.Value, 0, len(v))
		for _, e := range v {
			ev, err := ToCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, ev)
		}
		return cty.TupleVal(elems), nil
	case *Object:
		attrs := make(map[string]cty.Value, v.Len())
		for _, k := range v.keys {
			av, err := ToCty(v.values[k])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = av
		}
		return cty.ObjectVal(attrs), nil
	case PropertyList:
		elems := make([]cty.Value, 0, len(v))
		for _, p := range v {
			pv, err := ToCty(p.Value)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, cty.ObjectVal(map[string]cty.Value{
				"name":  cty.StringVal(p.Name),
				"value": pv,
			}))
		}
		return cty.TupleVal(elems), nil
	case Bytes:
		if len(v) == 0 {
			return cty.ListValEmpty(cty.Number), nil
		}
		elems := make([]cty.Value, len(v))
		for i, b := range v {
			elems[i] = cty.NumberIntVal(int64(b))
		}
		return cty.ListVal(elems), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type for conversion to cty.Value: %T", v)
	}
}

// MarshalCty encodes v as JSON through its cty form, the shape HCL tooling
// reads.
func MarshalCty(v Value) ([]byte, error) {
	cv, err := ToCty(v)
	if err != nil {
		return nil, err
	}
	return ctyjson.SimpleJSONValue{Value: cv}.MarshalJSON()
}
