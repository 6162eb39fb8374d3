package requestresponse

import "time"

// Envelope : единый формат ответа API
// swagger:model
type Envelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorBody : тело ошибки с кодом из таксономии
type ErrorBody struct {
	Code    string      `json:"code" example:"VALIDATION_ERROR"`
	Message string      `json:"message" example:"Email and password are required"`
	Details interface{} `json:"details,omitempty"`
}
