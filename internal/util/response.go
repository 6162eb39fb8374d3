package util

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dependency-manager/internal/apperror"
	"dependency-manager/internal/model/requestresponse"
)

// SendSuccess отправляет успешный ответ в едином формате envelope
func SendSuccess(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := requestresponse.Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Println("ошибка кодирования ответа:", err)
	}
}

// SendAppError отображает ошибку сервиса в envelope.
// Неожиданные ошибки уходят клиенту обезличенными, детали остаются в логах
func SendAppError(w http.ResponseWriter, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		log.Printf("неожиданная ошибка: %v", err)
		appErr = apperror.Internal("Internal server error")
	}

	SendError(w, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
}

func SendError(w http.ResponseWriter, statusCode int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := requestresponse.Envelope{
		Success: false,
		Error: &requestresponse.ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().UTC(),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Println("ошибка кодирования ответа:", err)
	}
}
