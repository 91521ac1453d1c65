// Package ctrl defines the tri-state control-flow signal threaded through
// every statement evaluator in place of per-frame early returns: a block
// propagates the first non-Normal signal and halts, a while loop absorbs
// Break (terminating) and Continue (re-testing its condition), and only a
// function body consumes Return.
package ctrl

import (
	"sona/internal/cell"
	"sona/internal/sound"
)

type Kind int

const (
	Normal Kind = iota
	Break
	Continue
	Return
)

// Value is the payload of a Return signal: whichever one of the four
// primitive types the enclosing function declares as its return type.
// Void-returning functions never populate a Value.
type Value struct {
	Type   cell.Type
	Real   float64
	Bool   bool
	String string
	Sound  sound.Value
}

// Signal is the result of executing any statement.
type Signal struct {
	Kind  Kind
	Value Value
}

var Normally = Signal{Kind: Normal}

func ReturnReal(v float64) Signal {
	return Signal{Kind: Return, Value: Value{Type: cell.Real, Real: v}}
}

func ReturnBool(v bool) Signal {
	return Signal{Kind: Return, Value: Value{Type: cell.Bool, Bool: v}}
}

func ReturnString(v string) Signal {
	return Signal{Kind: Return, Value: Value{Type: cell.String, String: v}}
}

func ReturnSound(v sound.Value) Signal {
	return Signal{Kind: Return, Value: Value{Type: cell.Sound, Sound: v}}
}

var ReturnVoid = Signal{Kind: Return}
var BreakSignal = Signal{Kind: Break}
var ContinueSignal = Signal{Kind: Continue}
