package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a citizen account. Roles: citizen, admin.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Name      string         `json:"name"`
	Phone     string         `json:"phone"`
	Password  string         `gorm:"not null" json:"-"`
	Role      string         `gorm:"default:'citizen'" json:"role"`
	Language  string         `gorm:"default:'fr'" json:"language"` // fr, ar
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Conversations []Conversation `gorm:"foreignKey:UserID" json:"conversations,omitempty"`
}

// Service is one entry of the administrative service catalog.
// IDs are natural identifiers such as "svc_passport" so that cached copies
// on the client keep the same key as the server record.
type Service struct {
	ID            string         `gorm:"primaryKey" json:"id"`
	TitleFr       string         `gorm:"not null" json:"title_fr"`
	TitleAr       string         `json:"title_ar"`
	DescriptionFr string         `gorm:"type:text" json:"description_fr"`
	DescriptionAr string         `gorm:"type:text" json:"description_ar"`
	Category      string         `gorm:"index" json:"category"` // etat-civil, identite, transport, justice
	Language      string         `gorm:"default:'both'" json:"language"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Steps        []ServiceStep `gorm:"foreignKey:ServiceID" json:"steps,omitempty"`
	FAQ          []ServiceFAQ  `gorm:"foreignKey:ServiceID" json:"faq,omitempty"`
	RequiredDocs string        `gorm:"type:text" json:"required_docs"` // one per line
}

// ServiceStep is one ordered step of a service procedure.
type ServiceStep struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ServiceID   string `gorm:"index" json:"service_id"`
	Order       int    `json:"order"`
	Title       string `json:"title"`
	Description string `gorm:"type:text" json:"description"`
}

// ServiceFAQ is a frequently asked question attached to a service.
type ServiceFAQ struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ServiceID string `gorm:"index" json:"service_id"`
	Question  string `gorm:"not null" json:"question"`
	Answer    string `gorm:"type:text" json:"answer"`
	Keywords  string `json:"keywords"` // comma separated
}

// Feedback is a citizen feedback submission. Source records whether it
// arrived directly or through an offline sync batch.
type Feedback struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	ServiceID *string        `gorm:"index" json:"service_id"`
	Rating    int            `json:"rating"` // 1-5
	Category  string         `json:"category"`
	Message   string         `gorm:"type:text" json:"message"`
	Source    string         `gorm:"default:'online'" json:"source"` // online, sync
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DocumentRequest tracks an administrative document through its lifecycle.
type DocumentRequest struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Reference   string         `gorm:"unique;not null" json:"reference"`
	UserID      uint           `gorm:"index" json:"user_id"`
	ServiceID   string         `gorm:"index" json:"service_id"`
	Status      string         `gorm:"default:'pending'" json:"status"` // pending, processing, ready, delivered, rejected
	Notes       string         `gorm:"type:text" json:"notes"`
	SubmittedAt time.Time      `json:"submitted_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Appointment is a booked slot at an administration office.
type Appointment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	ServiceID   string         `gorm:"index" json:"service_id"`
	Office      string         `json:"office"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Status      string         `gorm:"default:'scheduled'" json:"status"` // scheduled, confirmed, cancelled, completed
	Notes       string         `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Conversation is one assistant thread. Messages are append-only; deleting a
// conversation only flips IsActive so history survives for the admin view.
type Conversation struct {
	ID        string    `gorm:"primaryKey" json:"id"` // uuid
	UserID    uint      `gorm:"index" json:"user_id"`
	Title     string    `gorm:"size:200" json:"title"`
	Language  string    `gorm:"default:'fr'" json:"language"` // fr, ar
	Tags      string    `json:"tags"`                         // comma separated
	Summary   string    `gorm:"type:text" json:"summary,omitempty"`
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// Message is one turn of a conversation. Rows are never updated or removed;
// insertion order is display order.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"index" json:"conversation_id"`
	Role           string    `gorm:"not null" json:"role"` // user, assistant
	Content        string    `gorm:"type:text;not null" json:"content"`
	Tokens         int       `json:"tokens,omitempty"`
	Confidence     float64   `json:"confidence,omitempty"`
	Source         string    `json:"source,omitempty"` // ai, knowledge-base, default
	Timestamp      time.Time `json:"timestamp"`
	CreatedAt      time.Time `json:"created_at"`
}
