package handler

// Response is the envelope every JSON endpoint returns. Download endpoints
// stream raw bytes and skip it; error payloads are shaped by the error
// middleware instead.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success wraps a payload in the success envelope.
func Success(data interface{}) Response {
	return Response{Status: "success", Data: data}
}
