package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient pravi klijenta za pozive ka spoljnim servisima.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
	}
}
