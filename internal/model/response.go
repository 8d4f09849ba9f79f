package model

import "time"

// Envelope builds the base response body shared by every endpoint, success
// and error alike, so clients only ever parse one shape. Result mirrors the
// HTTP status code; server_time is ISO-8601 in UTC.
func Envelope(result int, message string) map[string]any {
	body := map[string]any{
		"result":      result,
		"server_time": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if message != "" {
		body["message"] = message
	}
	return body
}
