package errors

// Is reports whether the first *Error on err's Unwrap chain carries the
// given code. Codes of *Error values further down that chain (their
// Cause) are not checked.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Code.Equals(code)
}

// GetCode extracts the Code from err, or the zero Code if err is not a
// *Error.
func GetCode(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return Code{}
}
