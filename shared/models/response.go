package models

// ErrorResponse is the JSON body of every error reply: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by simple acknowledgement endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}
