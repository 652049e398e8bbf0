package domain

// HealthResponse is the fixed body of the root endpoint.
type HealthResponse struct {
	Data string `json:"data"`
}

// Health is what GET / always returns.
//
//nolint:gochecknoglobals
var Health = HealthResponse{Data: "Hello World!"}
