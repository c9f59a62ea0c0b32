package core

// Logger is implemented by services/logger.
// args may hold errors, map[string]interface{} extras and at most one Operator.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Operator is the person on whose behalf an operation runs (e.g. the staff member entering marks).
type Operator struct {
	ID   string
	Name string
}
