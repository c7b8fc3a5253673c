package dto

// VerifyCodeRequest is the body of POST /verification/verify.
type VerifyCodeRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

// CodeValidityResponse answers GET /verification/code/:code/valid.
type CodeValidityResponse struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
}

// DataResponse wraps a successful payload.
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error     string      `json:"error"`
	ErrorType string      `json:"error_type,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}
