package utils

import (
	"crypto/rand"
	"math/big"
	"path/filepath"
	"strings"
	"time"
)

type SuccessResponse struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Meta    *Meta `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

func CreateErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: APIError{
			Code:    code,
			Message: message,
		},
	}
}

func CreateSuccessResponse(data any) SuccessResponse {
	return SuccessResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Timestamp: time.Now(),
		},
	}
}

const digits = "0123456789"

// GenerateOTP returns a numeric one-time code of the given length.
func GenerateOTP(length int) string {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			sb.WriteByte(digits[0])
			continue
		}
		sb.WriteByte(digits[n.Int64()])
	}
	return sb.String()
}

// FileExtension returns the extension of an uploaded file name without the
// dot, falling back to the provided default when the name carries none.
func FileExtension(filename, fallback string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return fallback
	}
	return strings.ToLower(ext)
}
