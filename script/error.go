package script

// Error is an exception raised by script code.
type Error struct {
	// Value is the thrown script value.
	Value    Value
	Message  string
	Location string
}

func (e *Error) Error() string {
	if e.Location == "" {
		return e.Message
	}
	return e.Message + " at " + e.Location
}
