package models

// DetailResponse is the body of every error response produced by the gateway.
type DetailResponse struct {
	Detail string `json:"detail"`
}

const (
	DetailInternalServerError = "Internal Server Error"
	DetailOriginNotAllowed    = "Origin not allowed"
	DetailTooManyRequests     = "Too Many Requests"
	DetailEntityTooLarge      = "Request Entity Too Large"
	DetailBadGateway          = "Bad Gateway"
	DetailNotFound            = "Not Found"
)
