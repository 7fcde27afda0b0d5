package classfile

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Sexp renders a raw record (usually a *ClassFile) as an s-expression for
// debugging. Struct values become (typename (field value)...) with field
// names taken from yaml tags; slices become parenthesized lists.
func Sexp(v any) string {
	var b strings.Builder
	writeSexp(&b, reflect.ValueOf(v), 0)
	return b.String()
}

func writeSexp(b *strings.Builder, v reflect.Value, depth int) {
	if !v.IsValid() {
		b.WriteString("nil")
		return
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			b.WriteString("nil")
			return
		}
		writeSexp(b, v.Elem(), depth)

	case reflect.Struct:
		b.WriteByte('(')
		b.WriteString(strings.ToLower(v.Type().Name()))
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := sexpFieldName(f)
			if name == "" {
				continue
			}
			newline(b, depth+1)
			b.WriteByte('(')
			b.WriteString(name)
			b.WriteByte(' ')
			writeSexp(b, v.Field(i), depth+1)
			b.WriteByte(')')
		}
		b.WriteByte(')')

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			fmt.Fprintf(b, "#x%x", v.Bytes())
			return
		}
		b.WriteByte('(')
		scalar := isScalar(v.Type().Elem())
		for i := 0; i < v.Len(); i++ {
			if scalar {
				if i > 0 {
					b.WriteByte(' ')
				}
			} else {
				newline(b, depth+1)
			}
			writeSexp(b, v.Index(i), depth+1)
		}
		b.WriteByte(')')

	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))

	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))

	case reflect.Float32:
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 32))

	case reflect.Float64:
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))

	default:
		fmt.Fprintf(b, "%v", v.Interface())
	}
}

func sexpFieldName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("yaml")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return strings.ToLower(f.Name)
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Array, reflect.Map:
		return false
	}
	return true
}

func newline(b *strings.Builder, depth int) {
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("  ", depth))
}
