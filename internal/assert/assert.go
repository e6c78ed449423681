package assert

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func Equal[T any](t *testing.T, a T, b T) {
	t.Helper()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("%v != %v", a, b)
	}
}

func NotEqual[T any](t *testing.T, a T, b T) {
	t.Helper()
	if reflect.DeepEqual(a, b) {
		t.Fatalf("%v == %v", a, b)
	}
}

func True(t *testing.T, condition bool) {
	t.Helper()
	if !condition {
		t.Fatal("condition is false")
	}
}

func IsNil(t *testing.T, value any) {
	t.Helper()
	if !isNil(value) {
		t.Fatalf("%v is not nil", value)
	}
}

func NotNil(t *testing.T, value any) {
	t.Helper()
	if isNil(value) {
		t.Fatal("value is nil")
	}
}

func ErrorIs(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("%v does not match %v", err, target)
	}
}

func ErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("error is nil, expected to contain %q", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("%v does not contain %q", err, substr)
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface,
		reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
