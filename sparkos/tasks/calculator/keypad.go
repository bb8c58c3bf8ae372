package calculator

import "sparkcalc/sparkos/calc"

type buttonKind uint8

const (
	btnDigit buttonKind = iota
	btnOp
	btnClear
	btnDelete
	btnExit
)

type button struct {
	label string
	kind  buttonKind
	r     rune
	op    calc.Op
}

const (
	keypadCols = 4
	keypadRows = 5
)

var keypad = [keypadRows * keypadCols]button{
	digitButton('7'), digitButton('8'), digitButton('9'), opButton(calc.OpDiv),
	digitButton('4'), digitButton('5'), digitButton('6'), opButton(calc.OpMul),
	digitButton('1'), digitButton('2'), digitButton('3'), opButton(calc.OpSub),
	digitButton('.'), digitButton('0'), opButton(calc.OpEquals), opButton(calc.OpAdd),
	{label: "C", kind: btnClear}, {label: "DEL", kind: btnDelete}, opButton(calc.OpPercent), {label: "EXIT", kind: btnExit},
}

func digitButton(r rune) button {
	return button{label: string(r), kind: btnDigit, r: r}
}

func opButton(op calc.Op) button {
	return button{label: op.String(), kind: btnOp, op: op}
}

// moveCursor steps the keypad cursor by (dx, dy), wrapping at the edges.
func moveCursor(cur, dx, dy int) int {
	col := cur % keypadCols
	row := cur / keypadCols
	col = (col + dx + keypadCols) % keypadCols
	row = (row + dy + keypadRows) % keypadRows
	return row*keypadCols + col
}

// buttonForRune finds the keypad button a typed rune stands for.
func buttonForRune(r rune) (button, bool) {
	switch {
	case r >= '0' && r <= '9', r == '.':
		return digitButton(r), true
	case r == 'c' || r == 'C':
		return button{kind: btnClear}, true
	case r == 'q' || r == 'Q':
		return button{kind: btnExit}, true
	case r == '\b' || r == 0x7f:
		return button{kind: btnDelete}, true
	case r == '\r' || r == '\n':
		return opButton(calc.OpEquals), true
	case r == 'x' || r == 'X':
		return opButton(calc.OpMul), true
	}
	if op, ok := calc.OpFromRune(r); ok {
		return opButton(op), true
	}
	return button{}, false
}
