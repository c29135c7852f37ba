package core

// Logger logs a message and any extra args: errors, maps of attributes or the Person making the request.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the authenticated user in log entries.
type Person struct {
	ID    string
	Email string
}
