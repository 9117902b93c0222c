package handlers

import (
	"time"

	"github.com/pribylovaa/photo-sharing/internal/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type descriptionRequest struct {
	Description string `json:"description"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type accountResponse struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

func accountFromModel(a *models.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Email:          a.Identity,
		Role:           string(a.Role),
		EmailConfirmed: a.EmailConfirmed,
		CreatedAt:      a.CreatedAt,
	}
}

type signupResponse struct {
	Account accountResponse `json:"account"`
	Detail  string          `json:"detail"`
}

type tokenResponse struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	TokenType       string    `json:"token_type"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

func tokenFromModel(p *models.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:     p.AccessToken,
		RefreshToken:    p.RefreshToken,
		TokenType:       "bearer",
		AccessExpiresAt: p.AccessExpiresAt,
	}
}

type photoResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	URL         string    `json:"url,omitempty"`
	Key         string    `json:"key"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func photoFromModel(p *models.Photo) photoResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	return photoResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		URL:         p.URL,
		Key:         p.ObjectKey,
		Description: p.Description,
		Tags:        tags,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type commentResponse struct {
	ID        string    `json:"id"`
	PhotoID   int64     `json:"photo_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func commentFromModel(c *models.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PhotoID:   c.PhotoID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type commentsResponse struct {
	Items []commentResponse `json:"items"`
}
