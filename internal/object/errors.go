package object

// Error is a coded runtime error. Instances are used as sentinels and wrapped
// with fmt.Errorf("%w: ...") to add detail, so errors.Is keeps working.
type Error struct {
	Code string
	Msg  string
}

func NewError(code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

// Coded returns the code of the first *Error in err's chain, or "".
func Coded(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			multi, ok := err.(interface{ Unwrap() []error })
			if !ok {
				return ""
			}
			for _, inner := range multi.Unwrap() {
				if code := Coded(inner); code != "" {
					return code
				}
			}
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

var (
	ErrInvalidValueType       = NewError("00008", "invalid value type")
	ErrCannotBeConverted      = NewError("00010", "value cannot be converted")
	ErrNotComparableValue     = NewError("00012", "value cannot be compared")
	ErrDifferentTypeOfValues  = NewError("00013", "values cannot be compared, because of different type")
	ErrNotApplicableOperation = NewError("00025", "operation isn't applicable to this type")
	ErrDivisionByZero         = NewError("00080", "division by zero")
	ErrOutOfBounds            = NewError("00081", "index out of bounds")
	ErrInvalidLiteral         = NewError("00082", "invalid literal")
)
