package handlers

// Response shapes used by the API docs only.

type HealthResponse struct {
	Success    bool   `json:"success" example:"true"`
	StatusCode int    `json:"statusCode" example:"200"`
	Message    string `json:"message" example:"Request successful"`
	Data       string `json:"data" example:"server is running"`
	Timestamp  string `json:"timestamp" example:"2025-01-01T00:00:00.000Z"`
	Path       string `json:"path" example:"/health"`
}

type ReadyResponse struct {
	Success    bool              `json:"success" example:"true"`
	StatusCode int               `json:"statusCode" example:"200"`
	Message    string            `json:"message" example:"Request successful"`
	Data       map[string]string `json:"data"`
	Timestamp  string            `json:"timestamp" example:"2025-01-01T00:00:00.000Z"`
	Path       string            `json:"path" example:"/health/ready"`
}

type UsersResponse struct {
	Success    bool   `json:"success" example:"true"`
	StatusCode int    `json:"statusCode" example:"200"`
	Message    string `json:"message" example:"Request successful"`
	Data       []User `json:"data"`
	Timestamp  string `json:"timestamp" example:"2025-01-01T00:00:00.000Z"`
	Path       string `json:"path" example:"/api/v1/auth"`
}

type ErrorResponse struct {
	Success    bool   `json:"success" example:"false"`
	StatusCode int    `json:"statusCode" example:"500"`
	Timestamp  string `json:"timestamp" example:"2025-01-01T00:00:00.000Z"`
	Path       string `json:"path" example:"/api/v1/users"`
	Method     string `json:"method" example:"GET"`
	Message    string `json:"message" example:"Internal server error"`
	Error      string `json:"error" example:"Error"`
	Details    any    `json:"details,omitempty"`
}
