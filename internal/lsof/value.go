package lsof

import "strconv"

// Value is a decoded field value: either text or a signed integer.
// The zero Value is empty text.
type Value struct {
	kind Kind
	text string
	num  int64
}

func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

func IntegerValue(n int64) Value {
	return Value{kind: KindInteger, num: n}
}

func (v Value) Kind() Kind {
	return v.kind
}

// Text returns the text payload; ok is false for integer values.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// Int returns the integer payload; ok is false for text values.
func (v Value) Int() (int64, bool) {
	return v.num, v.kind == KindInteger
}

// String renders the value as it appeared on the wire.
func (v Value) String() string {
	if v.kind == KindInteger {
		return strconv.FormatInt(v.num, 10)
	}
	return v.text
}

// Interface returns the payload as a string or an int64.
func (v Value) Interface() any {
	if v.kind == KindInteger {
		return v.num
	}
	return v.text
}

// Coerce converts raw according to the declared kind of ft. Integer fields
// whose text does not parse degrade to text holding raw.
func Coerce(ft FieldType, raw string) Value {
	if ft.Kind != KindInteger {
		return TextValue(raw)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return TextValue(raw)
	}
	return IntegerValue(n)
}
