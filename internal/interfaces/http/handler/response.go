package handler

// MessageResponse carries a single confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}
