package log

const (
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	FieldUserID     = "user_id"
	FieldChatID     = "chat_id"
	FieldMessageID  = "message_id"
	FieldEndpointID = "endpoint_id"
	FieldEvent      = "event"

	FieldService = "service"
)
