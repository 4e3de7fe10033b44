package utils

import "time"

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Type      string      `json:"type,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, errType string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Type:      errType,
		Timestamp: time.Now(),
	}
}
