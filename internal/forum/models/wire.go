package models

import "time"

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// CreatePostRequest carries the ticket as a decimal string.
type CreatePostRequest struct {
	Content string `json:"content"`
	Ticket  string `json:"ticket"`
}

type PostResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Ticket    string    `json:"ticket"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:        p.ID.String(),
		Content:   p.Content,
		Ticket:    p.Ticket.String(),
		Timestamp: p.CreatedAt,
	}
}

func NewPostList(posts []*Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostResponse(p))
	}
	return out
}

type MessageResponse struct {
	Message string `json:"message"`
}
