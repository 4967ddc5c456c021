package logger

// Field keys shared by every package.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldHandleID  = "handle_id"
	FieldTopic     = "topic"
	FieldState     = "state"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldSubject   = "subject"
)

// Fields builds a field map from alternating key-value pairs. Non-string
// keys and a trailing key without value are skipped.
//
//	log.Info("Topic created", logger.Fields(logger.FieldTopic, "news"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields tags err with the operation that produced it.
func ErrorFields(op string, err error) map[string]interface{} {
	return Fields(FieldOperation, op, FieldError, err.Error())
}
