package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
