package calc

// Op is a calculator operator key.
//
// The zero value is not an operator; it renders as a blank indicator.
type Op uint8

const (
	OpEquals Op = iota + 1
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPercent
)

// Ops lists every operator in keypad order.
var Ops = [...]Op{OpEquals, OpAdd, OpSub, OpMul, OpDiv, OpPercent}

// Valid reports whether o names an operator.
func (o Op) Valid() bool {
	return o >= OpEquals && o <= OpPercent
}

func (o Op) String() string {
	switch o {
	case OpEquals:
		return "="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpPercent:
		return "%"
	default:
		return ""
	}
}

// ParseOp maps an operator symbol back to its Op.
func ParseOp(s string) (Op, bool) {
	for _, o := range Ops {
		if o.String() == s {
			return o, true
		}
	}
	return 0, false
}

// OpFromRune is ParseOp for a single key rune.
func OpFromRune(r rune) (Op, bool) {
	switch r {
	case '=':
		return OpEquals, true
	case '+':
		return OpAdd, true
	case '-':
		return OpSub, true
	case '*':
		return OpMul, true
	case '/':
		return OpDiv, true
	case '%':
		return OpPercent, true
	default:
		return 0, false
	}
}
