// Package machine implements the coroutine-aware dispatch loop: the
// create/resume/yield protocol, the per-coroutine operand stack and
// name environment, and the bytecode execution semantics for every
// opcode in the code package's instruction set.
//
// Every unit of execution, including the top-level program, is a
// [Coroutine]. Nested resume (a coroutine resuming another from inside
// its own dispatch loop) is implemented as a native recursive call into
// the callee's Resume; there is no shared frame stack across
// coroutines.
package machine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/yufengwng/coro/code"
	"github.com/yufengwng/coro/value"
)

// Status is a coroutine's place in its {Suspended, Running, Done}
// state machine.
type Status int

const (
	Suspended Status = iota
	Running
	Done
)

// String renders the status the way it appears embedded in a Co
// value's textual form.
func (s Status) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Coroutine is a suspendable unit of execution: an instruction pointer,
// an owned function definition (replaceable via Rewind), a status, a
// flat name environment, and an operand stack.
type Coroutine struct {
	ip     int
	fn     *code.FunctionDefinition
	status Status
	env    map[string]value.Value
	stack  []value.Value

	// Stdout is where Print writes. Defaults to os.Stdout; tests
	// redirect it to capture output. A coroutine made by Create starts
	// with os.Stdout, not its creator's writer.
	Stdout io.Writer
}

// New creates a fresh coroutine over fn, at ip 0, Suspended, with an
// empty stack and environment.
func New(fn *code.FunctionDefinition) *Coroutine {
	return &Coroutine{
		fn:     fn,
		status: Suspended,
		env:    make(map[string]value.Value),
		Stdout: os.Stdout,
	}
}

// Status returns the coroutine's current status.
func (c *Coroutine) Status() Status { return c.status }

// Function returns the function definition this coroutine is running.
func (c *Coroutine) Function() *code.FunctionDefinition { return c.fn }

// Rewind re-seeds the coroutine with a new top-level function: resets
// ip to 0, clears the operand stack, forces status to Suspended, and
// replaces the function -- but preserves the name environment, which
// is what gives the REPL its continuation semantics (earlier let/def
// bindings stay visible).
func (c *Coroutine) Rewind(fn *code.FunctionDefinition) {
	c.ip = 0
	c.fn = fn
	c.stack = c.stack[:0]
	c.status = Suspended
}

// CoValue wraps a *Coroutine so it can be stored and compared as a
// value.Value. Co values compare by identity.
type CoValue struct {
	Co *Coroutine
}

// Type returns "co".
func (CoValue) Type() string { return "co" }

// Print renders "<coro fn: NAME status: STATUS>".
func (c CoValue) Print() string {
	return fmt.Sprintf("<coro fn: %s status: %s>", c.Co.fn.DisplayName(), c.Co.status)
}

// Debug is identical to Print for CoValue.
func (c CoValue) Debug() string { return c.Print() }

// Identity returns the underlying *Coroutine for identity comparison
// via value.Equal.
func (c CoValue) Identity() any { return c.Co }

var _ value.Identifiable = CoValue{}

func (c *Coroutine) push(v value.Value) { c.stack = append(c.stack, v) }

func (c *Coroutine) pop() value.Value {
	if len(c.stack) == 0 {
		return value.Unit{}
	}
	n := len(c.stack) - 1
	v := c.stack[n]
	c.stack = c.stack[:n]
	return v
}

func (c *Coroutine) peek() value.Value {
	if len(c.stack) == 0 {
		return value.Unit{}
	}
	return c.stack[len(c.stack)-1]
}

func (c *Coroutine) readUint16() int {
	v := int(code.ReadUint16(c.fn.Body.Instructions[c.ip:]))
	c.ip += 2
	return v
}

func (c *Coroutine) line() int {
	if c.ip == 0 || c.ip > c.fn.Body.Len() {
		return 0
	}
	return c.fn.Body.Line(c.ip - 1)
}

func (c *Coroutine) fail(err error) error {
	return &RuntimeError{Line: c.line(), Err: err}
}

// Resume is the heart of the coroutine protocol. It validates the
// coroutine is Suspended, binds
// parameters on first entry (or pushes the single resume argument
// after a prior yield), runs the dispatch loop, and returns either the
// value produced by a Yield or Ret, or the error that aborted
// execution.
func (c *Coroutine) Resume(ctx context.Context, args []value.Value) (value.Value, error) {
	if c.status != Suspended {
		return nil, c.fail(ErrNotSuspended)
	}

	if c.ip == 0 {
		if len(args) != c.fn.Arity() {
			return nil, c.fail(fmt.Errorf("%w: %s expects %d argument(s), got %d",
				ErrArity, c.fn.DisplayName(), c.fn.Arity(), len(args)))
		}
		for i, p := range c.fn.Params {
			c.env[p] = args[i]
		}
	} else {
		switch len(args) {
		case 0:
			c.push(value.Unit{})
		case 1:
			c.push(args[0])
		default:
			return nil, c.fail(fmt.Errorf("%w: resume expects at most 1 argument, got %d", ErrArity, len(args)))
		}
	}

	c.status = Running
	return c.run(ctx)
}

// run executes the dispatch loop starting at the coroutine's current
// ip, returning when the loop yields, returns, runs off the end of the
// instruction stream, or an opcode fails.
func (c *Coroutine) run(ctx context.Context) (value.Value, error) {
	body := c.fn.Body
	for c.ip < body.Len() {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(fmt.Errorf("%w: %s", ErrCancelled, err))
		}

		op := code.Opcode(body.Instr(c.ip))
		c.ip++

		switch op {
		case code.OpUnit:
			c.push(value.Unit{})
		case code.OpTrue:
			c.push(value.Bool(true))
		case code.OpFalse:
			c.push(value.Bool(false))
		case code.OpConst:
			c.push(body.Constant(c.readUint16()))
		case code.OpLoad:
			name := string(body.Constant(c.readUint16()).(value.Str))
			v, ok := c.env[name]
			if !ok {
				return nil, c.fail(fmt.Errorf("%w: %s", ErrUnboundName, name))
			}
			c.push(v)
		case code.OpStore:
			name := string(body.Constant(c.readUint16()).(value.Str))
			c.env[name] = c.pop()
			c.push(value.Unit{})
		case code.OpDefine:
			fv := body.Constant(c.readUint16()).(code.FnValue)
			c.env[fv.Def.Name] = fv
			c.push(value.Unit{})
		case code.OpCreate:
			name := string(body.Constant(c.readUint16()).(value.Str))
			v, ok := c.env[name]
			if !ok {
				return nil, c.fail(fmt.Errorf("%w: %s", ErrUnboundName, name))
			}
			fv, ok := v.(code.FnValue)
			if !ok {
				return nil, c.fail(fmt.Errorf("%w: %s", ErrNotFunction, name))
			}
			c.push(CoValue{Co: New(fv.Def)})
		case code.OpResume:
			n := c.readUint16()
			args := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = c.pop()
			}
			target := c.pop()
			cv, ok := target.(CoValue)
			if !ok {
				return nil, c.fail(ErrNotCoroutine)
			}
			c.status = Suspended
			result, err := cv.Co.Resume(ctx, args)
			c.status = Running
			if err != nil {
				return nil, err
			}
			c.push(result)
		case code.OpYield:
			v := c.pop()
			c.status = Suspended
			return v, nil
		case code.OpPrint:
			v := c.pop()
			fmt.Fprintln(c.Stdout, v.Print())
			c.push(value.Unit{})
		case code.OpPop:
			c.pop()
		case code.OpAdd, code.OpSub, code.OpMul, code.OpDiv:
			b, a, err := c.popNums(opName(op))
			if err != nil {
				return nil, err
			}
			if op == code.OpDiv && float64(b) == 0 {
				return nil, c.fail(ErrDivideByZero)
			}
			c.push(arith(op, a, b))
		case code.OpNeg:
			a, err := c.popNum("Neg")
			if err != nil {
				return nil, err
			}
			c.push(-a)
		case code.OpNot:
			a := c.pop()
			c.push(value.Bool(!value.Truthy(a)))
		case code.OpLt:
			b, a, err := c.popNums("Lt")
			if err != nil {
				return nil, err
			}
			c.push(value.Bool(a < b))
		case code.OpEq:
			b := c.pop()
			a := c.pop()
			c.push(value.Bool(value.Equal(a, b)))
		case code.OpJump:
			k := c.readUint16()
			c.ip += k
		case code.OpLoop:
			k := c.readUint16()
			c.ip -= k
		case code.OpBranch:
			k := c.readUint16()
			if !value.Truthy(c.peek()) {
				c.ip += k
			}
		case code.OpRet:
			v := c.pop()
			c.status = Done
			return v, nil
		default:
			return nil, c.fail(fmt.Errorf("unimplemented opcode %d", op))
		}
	}

	v := c.pop()
	c.status = Done
	return v, nil
}

func (c *Coroutine) popNum(opName string) (value.Num, error) {
	v := c.pop()
	n, ok := v.(value.Num)
	if !ok {
		return 0, c.fail(fmt.Errorf("%w (%s)", ErrNotNumber, opName))
	}
	return n, nil
}

func (c *Coroutine) popNumFor(opName string, sentinel error) (value.Num, error) {
	v := c.pop()
	n, ok := v.(value.Num)
	if !ok {
		return 0, c.fail(fmt.Errorf("%w (%s)", sentinel, opName))
	}
	return n, nil
}

func (c *Coroutine) popNums(opName string) (b, a value.Num, err error) {
	b, err = c.popNumFor(opName, ErrNotNumbers)
	if err != nil {
		return 0, 0, err
	}
	a, err = c.popNumFor(opName, ErrNotNumbers)
	if err != nil {
		return 0, 0, err
	}
	return b, a, nil
}

func arith(op code.Opcode, a, b value.Num) value.Value {
	switch op {
	case code.OpAdd:
		return a + b
	case code.OpSub:
		return a - b
	case code.OpMul:
		return a * b
	case code.OpDiv:
		return a / b
	default:
		panic("unreachable")
	}
}

// opName renders an opcode's mnemonic, used in operator error messages.
func opName(op code.Opcode) string {
	def, err := code.Lookup(byte(op))
	if err != nil {
		return "?"
	}
	return def.Name
}
