package repository

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

const nullValue = "NULL_VALUE"

// Value is the Firestore REST typed value. Exactly one member is set; a value with
// no member set (the server sends {"nullValue": null}) decodes to nil.
type Value struct {
	NullValue      *string     `json:"nullValue,omitempty"`
	BooleanValue   *bool       `json:"booleanValue,omitempty"`
	IntegerValue   *string     `json:"integerValue,omitempty"`
	DoubleValue    *float64    `json:"doubleValue,omitempty"`
	TimestampValue *string     `json:"timestampValue,omitempty"`
	StringValue    *string     `json:"stringValue,omitempty"`
	ArrayValue     *ArrayValue `json:"arrayValue,omitempty"`
	MapValue       *MapValue   `json:"mapValue,omitempty"`
}

// ArrayValue holds an ordered list of values
type ArrayValue struct {
	Values []Value `json:"values,omitempty"`
}

// MapValue holds a nested record
type MapValue struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

// EncodeFields maps plain Go values to typed values
func EncodeFields(fields map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(fields))
	for k, v := range fields {
		tv, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = tv
	}
	return out, nil
}

// DecodeFields is the inverse of EncodeFields
func DecodeFields(fields map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		pv, err := DecodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = pv
	}
	return out, nil
}

// EncodeValue converts one value. Integers always encode as int64 strings, timestamps as
// RFC 3339 in UTC.
func EncodeValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		s := nullValue
		return Value{NullValue: &s}, nil
	case bool:
		return Value{BooleanValue: &x}, nil
	case string:
		return Value{StringValue: &x}, nil
	case int:
		s := strconv.FormatInt(int64(x), 10)
		return Value{IntegerValue: &s}, nil
	case int32:
		s := strconv.FormatInt(int64(x), 10)
		return Value{IntegerValue: &s}, nil
	case int64:
		s := strconv.FormatInt(x, 10)
		return Value{IntegerValue: &s}, nil
	case float64:
		return Value{DoubleValue: &x}, nil
	case time.Time:
		s := x.UTC().Format(time.RFC3339Nano)
		return Value{TimestampValue: &s}, nil
	case []any:
		values := make([]Value, 0, len(x))
		for i, item := range x {
			tv, err := EncodeValue(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			values = append(values, tv)
		}
		return Value{ArrayValue: &ArrayValue{Values: values}}, nil
	case map[string]any:
		fields, err := EncodeFields(x)
		if err != nil {
			return Value{}, err
		}
		return Value{MapValue: &MapValue{Fields: fields}}, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// DecodeValue converts one typed value back to its plain Go form
func DecodeValue(v Value) (any, error) {
	switch {
	case v.BooleanValue != nil:
		return *v.BooleanValue, nil
	case v.StringValue != nil:
		return *v.StringValue, nil
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integerValue %q: %w", *v.IntegerValue, err)
		}
		return n, nil
	case v.DoubleValue != nil:
		return *v.DoubleValue, nil
	case v.TimestampValue != nil:
		t, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
		if err != nil {
			return nil, fmt.Errorf("bad timestampValue %q: %w", *v.TimestampValue, err)
		}
		return t.UTC(), nil
	case v.ArrayValue != nil:
		out := make([]any, 0, len(v.ArrayValue.Values))
		for i, item := range v.ArrayValue.Values {
			pv, err := DecodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, pv)
		}
		return out, nil
	case v.MapValue != nil:
		return DecodeFields(v.MapValue.Fields)
	default:
		return nil, nil
	}
}

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
