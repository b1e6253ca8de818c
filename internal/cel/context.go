package cel

import (
	"time"

	"github.com/google/uuid"
)

// Function is a builtin callable from expressions. Arguments are fully
// evaluated before invocation.
type Function func(args []Value) (Value, error)

// contextItem is the closed two-variant union of things an identifier can
// resolve to: a bound value or a builtin function.
type contextItem struct {
	value Value
	fn    Function
}

// Context binds identifier names for one evaluation. It is never mutated
// once an evaluation has begun, so it is safe to share read-only.
type Context struct {
	idents map[string]contextItem
}

// NewContext returns a context pre-registered with the builtin functions
// and the layer and direction constants.
func NewContext() *Context {
	ctx := &Context{idents: make(map[string]contextItem)}
	ctx.AddFunction("date", builtinDate)
	ctx.AddFunction("uuid", builtinUUID)
	for _, name := range []string{"SETTLED", "PENDING", "ENCUMBERED", "DEBIT", "CREDIT"} {
		ctx.AddVariable(name, String(name))
	}
	return ctx
}

// AddVariable binds name to a value, replacing any previous binding.
func (c *Context) AddVariable(name string, v Value) {
	c.idents[name] = contextItem{value: v}
}

// AddFunction binds name to a builtin function.
func (c *Context) AddFunction(name string, fn Function) {
	c.idents[name] = contextItem{fn: fn}
}

func (c *Context) lookup(name string) (contextItem, error) {
	item, ok := c.idents[name]
	if !ok {
		return contextItem{}, &UnknownIdentError{Name: name}
	}
	return item, nil
}

// builtinDate returns today's date when called without arguments, or
// parses an ISO-8601 date string.
func builtinDate(args []Value) (Value, error) {
	if len(args) == 0 {
		return NewDate(time.Now()), nil
	}
	s, err := AsString(args[0])
	if err != nil {
		return nil, err
	}
	return ParseDate(s)
}

// builtinUUID returns a freshly generated random UUID.
func builtinUUID(args []Value) (Value, error) {
	return UUID(uuid.New()), nil
}
