package schema

import (
	"fmt"
	"testing"
)

func TestStringType(t *testing.T) {
	typ := String()

	if typ.Name() != "string" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "string")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{"hello", false},
		{"", false},
		{42, true},
		{true, true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestIntType(t *testing.T) {
	typ := Int()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{42, false},
		{int64(42), false},
		{float64(42), false},  // whole number
		{float64(42.5), true}, // not whole
		{"42", true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestSliceType(t *testing.T) {
	typ := NonEmptySlice(Int())

	if typ.Name() != "[int]" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "[int]")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{[]int{0, 1}, false},
		{[]any{0.0, 1.0}, false}, // JSON decoded
		{[]any{}, true},
		{[]any{"a"}, true},
		{"0,1", true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestEnumType(t *testing.T) {
	typ := Enum("inner", "outer")

	if typ.Name() != "inner|outer" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "inner|outer")
	}
	if err := typ.Validate("outer"); err != nil {
		t.Errorf("Validate(outer) error = %v", err)
	}
	if err := typ.Validate("left"); err == nil {
		t.Error("Validate(left) should fail")
	}
	if err := typ.Validate(1); err == nil {
		t.Error("Validate(1) should fail")
	}
}

func TestCustomType(t *testing.T) {
	nonNegative := Custom("index", func(v any) error {
		if err := Int().Validate(v); err != nil {
			return err
		}
		if fmt.Sprint(v)[0] == '-' {
			return fmt.Errorf("must not be negative")
		}
		return nil
	})

	if err := nonNegative.Validate(3); err != nil {
		t.Errorf("Validate(3) error = %v", err)
	}
	if err := nonNegative.Validate(-1); err == nil {
		t.Error("Validate(-1) should fail")
	}
}
