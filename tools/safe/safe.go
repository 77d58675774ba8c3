package safe

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/tools/errs"
)

// MustNotNil panics if the given value is nil.
func MustNotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("%s must not be nil", name))
		}
	}
}

// DefaultString returns s when it is not empty, otherwise fallback.
func DefaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// SafeGo starts a goroutine that recovers from panic so one bad job cannot crash the process.
func SafeGo(name string, f func()) {
	go func() {
		defer Recover(name)
		f()
	}()
}

func Recover(name string) {
	if r := recover(); r != nil {
		logger.Error("panic recovered", zap.String("goroutine", name), zap.Error(errs.ErrPanic(r)), zap.Stack("stack"))
	}
}
