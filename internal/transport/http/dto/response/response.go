package response

import "base_gallery/internal/lib/notify"

type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MutationResponse результат изменения базы вместе с уведомлениями для пользователя
type MutationResponse struct {
	Status        string                `json:"status"`
	Success       bool                  `json:"success"`
	Notifications []notify.Notification `json:"notifications"`
}

func SuccessResponse(data interface{}) Response {
	return Response{
		Status: "success",
		Data:   data,
	}
}

func ErrorResponseWithDetails(err, details string) ErrorResponse {
	return ErrorResponse{
		Status:  "error",
		Error:   err,
		Details: details,
	}
}
