package http

import "github.com/fyrsmithlabs/uigen/internal/project"

// Routes shared by the dev server and the clients.
const (
	RouteHealth   = "/health"
	RouteMetrics  = "/metrics"
	RouteProjects = "/api/projects"
	RouteSignIn   = "/api/auth/signin"
	RouteSignUp   = "/api/auth/signup"
	RouteSignOut  = "/api/auth/signout"
)

// ProjectsResponse is the response body for GET /api/projects.
type ProjectsResponse struct {
	Projects []project.Project `json:"projects"`
}

// ProjectResponse is the response body for POST /api/projects.
// The request body is a project.CreateSpec.
type ProjectResponse struct {
	Project project.Project `json:"project"`
}

// Credentials is the request body for sign-in and sign-up.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the public view of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SessionResponse is returned by sign-in and sign-up.
type SessionResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
