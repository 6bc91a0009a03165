package models

import "time"

type HelpArticle struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Order       int       `json:"order"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

type SupportTicket struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Category  string    `json:"category"` // bug | feature | question | other
	Status    string    `json:"status"`   // open | in-progress | resolved | closed
	Priority  string    `json:"priority"` // low | medium | high
	CreatedAt time.Time `json:"created_at"`
}
