package transport

// LoginRequest is the body of POST /log_in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
