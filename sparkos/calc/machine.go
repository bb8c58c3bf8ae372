// Package calc implements the calculator's operand/operator state machine.
//
// A Machine holds two registers (the accumulator and the operand buffer), the
// operator waiting to be applied, and the digits typed so far. Every operator
// key press is one self-contained transition; nothing in this package blocks,
// allocates goroutines, or returns errors for bad input.
package calc

import "math"

// Display is what the UI renders after each event.
type Display struct {
	// Result is the formatted accumulator, empty before the first result.
	Result string
	// Operator is the indicator next to the result; empty after Clear.
	Operator string
	// Entry is the number being typed.
	Entry string
}

// Machine is the calculator state. The zero value is ready to use.
type Machine struct {
	acc       Value
	operand   float64
	pending   Op
	entry     []rune
	indicator Op
}

// New returns a cleared Machine.
func New() *Machine {
	return &Machine{pending: OpEquals}
}

// Digit appends r to the entry buffer. The buffer is not validated until an
// operator is applied.
func (m *Machine) Digit(r rune) Display {
	m.entry = append(m.entry, r)
	return m.Display()
}

// Delete drops the last rune of the entry buffer, if any.
func (m *Machine) Delete() Display {
	if n := len(m.entry); n > 0 {
		m.entry = m.entry[:n-1]
	}
	return m.Display()
}

// Clear resets every register to its default.
func (m *Machine) Clear() Display {
	m.acc = None()
	m.operand = 0
	m.pending = OpEquals
	m.entry = m.entry[:0]
	m.indicator = 0
	return m.Display()
}

// Apply commits the entry buffer with operator op.
//
// An empty or malformed entry leaves both registers untouched but still
// records op as the pending operator. The first committed number of a session
// only seeds the accumulator. After that, the previously pending operator is
// applied to (accumulator, entry); if that operator was "=", op itself is
// applied instead so that "= then +" acts like a fresh "+".
func (m *Machine) Apply(op Op) Display {
	if !op.Valid() {
		return m.Display()
	}

	if value, ok := parseEntry(string(m.entry)); ok {
		if acc, present := m.acc.Get(); !present {
			m.acc = Some(value)
		} else {
			m.operand = value
			apply := m.pendingOp()
			if apply == OpEquals {
				apply = op
			}
			m.acc = Some(evaluate(apply, acc, m.operand))
		}
	}

	m.pending = op
	m.indicator = op
	m.entry = m.entry[:0]
	return m.Display()
}

// Display returns the current display without changing state.
func (m *Machine) Display() Display {
	d := Display{
		Operator: m.indicator.String(),
		Entry:    string(m.entry),
	}
	if acc, ok := m.acc.Get(); ok {
		d.Result = FormatResult(acc)
	}
	return d
}

// Pending returns the operator that the next operator press will apply.
func (m *Machine) Pending() Op { return m.pendingOp() }

// Accumulator returns the running result.
func (m *Machine) Accumulator() Value { return m.acc }

// Snapshot captures the persistent registers. The entry buffer is not part of it.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Accumulator:     m.acc,
		OperandBuffer:   m.operand,
		PendingOperator: m.pendingOp(),
	}
}

// Restore reinstates s and empties the entry buffer.
func (m *Machine) Restore(s Snapshot) {
	m.acc = s.Accumulator
	m.operand = s.OperandBuffer
	m.pending = s.PendingOperator
	if !m.pending.Valid() {
		m.pending = OpEquals
	}
	m.indicator = m.pending
	if !m.acc.Present() && m.pending == OpEquals {
		// Nothing was started yet: keep the cleared look.
		m.indicator = 0
	}
	m.entry = m.entry[:0]
}

func (m *Machine) pendingOp() Op {
	if !m.pending.Valid() {
		return OpEquals
	}
	return m.pending
}

func evaluate(op Op, acc, operand float64) float64 {
	switch op {
	case OpEquals:
		return operand
	case OpAdd:
		return acc + operand
	case OpSub:
		return acc - operand
	case OpMul:
		return acc * operand
	case OpDiv:
		if operand == 0 {
			return math.NaN()
		}
		return acc / operand
	case OpPercent:
		return acc * (operand / 100)
	default:
		return acc
	}
}
