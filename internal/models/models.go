package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	UserID       uint       `json:"userID" gorm:"primaryKey;column:userID"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null;column:username"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;column:email"`
	PasswordHash string     `json:"-" gorm:"not null;column:password_hash"`
	FirstName    string     `json:"first_name" gorm:"column:first_name"`
	LastName     string     `json:"last_name" gorm:"column:last_name"`
	Role         string     `json:"role" gorm:"column:role;default:user"`
	IsActive     bool       `json:"is_active" gorm:"column:is_active;default:true"`
	LastLogin    *time.Time `json:"last_login" gorm:"column:last_login"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

func (u User) GetDisplayName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}

// LoginAttempt tracks failed authentication attempts per client fingerprint.
// One row per distinct fingerprint; created lazily on the first attempt.
type LoginAttempt struct {
	AttemptID    uint           `json:"attemptID" gorm:"primaryKey;column:attemptID"`
	Fingerprint  string         `json:"fingerprint" gorm:"uniqueIndex;not null;column:fingerprint"`
	IP           string         `json:"ip" gorm:"column:ip"`
	UserAgentRaw string         `json:"user_agent_raw" gorm:"column:user_agent_raw;type:varchar(512)"`
	Browser      *string        `json:"browser" gorm:"column:browser"`
	OS           *string        `json:"os" gorm:"column:os"`
	Device       *string        `json:"device" gorm:"column:device"`
	AttemptCount int            `json:"attempt_count" gorm:"column:attempt_count;default:0"`
	IsBlocked    bool           `json:"is_blocked" gorm:"column:is_blocked;default:false"`
	BlockedUntil *time.Time     `json:"blocked_until" gorm:"column:blocked_until"`
	LastAttempt  time.Time      `json:"last_attempt" gorm:"column:last_attempt"`
	ExtraHeaders datatypes.JSON `json:"extra_headers" gorm:"column:extra_headers;type:json"`
	CreatedAt    time.Time      `json:"created_at" gorm:"column:created_at"`
}

func (LoginAttempt) TableName() string {
	return "login_attempts"
}

type Booking struct {
	BookingID   uint       `json:"bookingID" gorm:"primaryKey;column:bookingID"`
	Reference   string     `json:"reference" gorm:"uniqueIndex;not null;column:reference"`
	UserID      uint       `json:"userID" gorm:"not null;column:userID"`
	User        *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Kind        string     `json:"kind" gorm:"not null;column:kind"` // flight, hotel, activity
	Title       string     `json:"title" gorm:"not null;column:title"`
	Origin      *string    `json:"origin" gorm:"column:origin"`
	Destination *string    `json:"destination" gorm:"column:destination"`
	StartDate   *time.Time `json:"start_date" gorm:"column:start_date;type:date"`
	EndDate     *time.Time `json:"end_date" gorm:"column:end_date;type:date"`
	Travelers   int        `json:"travelers" gorm:"column:travelers;default:1"`
	Price       float64    `json:"price" gorm:"column:price;default:0"`
	Currency    string     `json:"currency" gorm:"column:currency;default:EUR"`
	Status      string     `json:"status" gorm:"column:status;default:pending"`
	Notes       *string    `json:"notes" gorm:"column:notes"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b Booking) IsUpcoming() bool {
	return b.StartDate != nil && b.StartDate.After(time.Now())
}

type PaymentMethod struct {
	PaymentMethodID uint           `json:"paymentMethodID" gorm:"primaryKey;column:paymentMethodID"`
	UserID          uint           `json:"userID" gorm:"not null;index;column:userID"`
	Label           string         `json:"label" gorm:"not null;column:label"`
	Provider        string         `json:"provider" gorm:"column:provider"`
	LastFour        *string        `json:"last_four" gorm:"column:last_four"`
	ExpiryMonth     *int           `json:"expiry_month" gorm:"column:expiry_month"`
	ExpiryYear      *int           `json:"expiry_year" gorm:"column:expiry_year"`
	IsDefault       bool           `json:"is_default" gorm:"column:is_default;default:false"`
	Details         datatypes.JSON `json:"details" gorm:"column:details;type:json"`
	CreatedAt       time.Time      `json:"created_at" gorm:"column:created_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}

type ContactMessage struct {
	MessageID uint      `json:"messageID" gorm:"primaryKey;column:messageID"`
	Name      string    `json:"name" gorm:"not null;column:name"`
	Email     string    `json:"email" gorm:"not null;column:email"`
	Subject   string    `json:"subject" gorm:"column:subject"`
	Body      string    `json:"body" gorm:"not null;column:body;type:text"`
	IsRead    bool      `json:"is_read" gorm:"column:is_read;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}

type AuditLog struct {
	AuditID    uint      `json:"auditID" gorm:"primaryKey;column:auditID"`
	UserID     *uint     `json:"userID" gorm:"column:userID"`
	Action     string    `json:"action" gorm:"not null;column:action"`
	EntityType string    `json:"entity_type" gorm:"column:entity_type"`
	EntityID   string    `json:"entity_id" gorm:"column:entity_id"`
	IPAddress  string    `json:"ip_address" gorm:"column:ip_address"`
	UserAgent  string    `json:"user_agent" gorm:"column:user_agent;type:varchar(512)"`
	Timestamp  time.Time `json:"timestamp" gorm:"column:timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

type TwoFactorSecret struct {
	UserID      uint      `json:"userID" gorm:"primaryKey;column:user_id"`
	Secret      string    `json:"-" gorm:"not null;column:secret"`
	IsEnabled   bool      `json:"is_enabled" gorm:"column:is_enabled;default:false"`
	BackupCodes string    `json:"-" gorm:"column:backup_codes;type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

func (TwoFactorSecret) TableName() string {
	return "user_2fa"
}

// FilterParams holds common list filtering options
type FilterParams struct {
	SearchTerm string `form:"search"`
	Filter     string `form:"filter"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"-"`
}

func (p *FilterParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
	p.Offset = (p.Page - 1) * p.Limit
}
