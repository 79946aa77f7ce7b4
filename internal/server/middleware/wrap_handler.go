package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"

	"github.com/labstack/echo/v4"
)

var (
	ctxType = reflect.TypeFor[echo.Context]()
	errType = reflect.TypeFor[error]()
)

// WrapHandler adapts func(echo.Context, Req) (Res, error) or
// func(echo.Context, Req) error into an echo handler. Req is bound and
// validated with BindAndValidate; Res is wrapped in a Response envelope.
// It panics on any other signature.
func WrapHandler(f any) echo.HandlerFunc {
	handler, err := wrapHandler(f)
	if err != nil {
		panic(err)
	}
	return handler
}

func wrapHandler(f any) (echo.HandlerFunc, error) {
	fn := reflect.ValueOf(f)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("wrap handler: %T is not a func", f)
	}
	if err := checkSignature(fn.Type()); err != nil {
		return nil, fmt.Errorf("wrap handler %s: %w", runtime.FuncForPC(fn.Pointer()).Name(), err)
	}

	reqType := fn.Type().In(1)
	hasResult := fn.Type().NumOut() == 2

	return func(c echo.Context) error {
		req := reflect.New(reqType)
		if err := BindAndValidate(c, req.Interface()); err != nil {
			return err
		}

		out := fn.Call([]reflect.Value{reflect.ValueOf(c), req.Elem()})
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return errVal.Interface().(error)
		}

		switch {
		case c.Response().Committed:
			return nil
		case !hasResult:
			return c.NoContent(http.StatusNoContent)
		}
		return respond(c, out[0].Interface())
	}, nil
}

func checkSignature(t reflect.Type) error {
	switch {
	case t.NumIn() != 2:
		return fmt.Errorf("want 2 arguments, got %d", t.NumIn())
	case !t.In(0).Implements(ctxType):
		return fmt.Errorf("first argument %v is not echo.Context", t.In(0))
	case t.In(1).Kind() != reflect.Struct:
		return fmt.Errorf("second argument %v is not a struct", t.In(1))
	case t.NumOut() < 1 || t.NumOut() > 2:
		return fmt.Errorf("want 1 or 2 results, got %d", t.NumOut())
	case !t.Out(t.NumOut() - 1).Implements(errType):
		return fmt.Errorf("last result %v is not error", t.Out(t.NumOut()-1))
	}
	return nil
}

func respond(c echo.Context, data any) error {
	resp, ok := data.(*Response)
	if !ok {
		resp = &Response{Success: true, Data: data}
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	return c.JSON(resp.Status, resp)
}
