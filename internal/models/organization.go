package models

import (
	"time"
)

// Organization is a tenant. Its profile feeds the Company module.
type Organization struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name       string `json:"name" gorm:"type:varchar(255);not null"`
	Industry   string `json:"industry" gorm:"type:varchar(255)"`
	Mission    string `json:"mission" gorm:"type:text"`
	Vision     string `json:"vision" gorm:"type:text"`
	Objectives string `json:"objectives" gorm:"type:text"`
	Purpose    string `json:"purpose" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Organization model
func (Organization) TableName() string {
	return "organizations"
}

// Product belongs to a tenant
type Product struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TenantID    string `json:"tenant_id" gorm:"not null;index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"type:varchar(100)"`
	Price       string `json:"price" gorm:"type:varchar(50)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization Organization `json:"-" gorm:"foreignKey:TenantID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// Persona is a target audience profile of a tenant
type Persona struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TenantID    string `json:"tenant_id" gorm:"not null;index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`
	AgeRange    string `json:"age_range" gorm:"type:varchar(50)"`
	Occupation  string `json:"occupation" gorm:"type:varchar(255)"`
	Goals       string `json:"goals" gorm:"type:text"`
	PainPoints  string `json:"pain_points" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization Organization `json:"-" gorm:"foreignKey:TenantID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Persona) TableName() string {
	return "personas"
}

// ContentModule is a reusable content brief of a tenant
type ContentModule struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TenantID    string `json:"tenant_id" gorm:"not null;index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`
	Format      string `json:"format" gorm:"type:varchar(100)"` // blog, video, carousel, ...
	Tone        string `json:"tone" gorm:"type:varchar(100)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization Organization `json:"-" gorm:"foreignKey:TenantID;references:ID;constraint:OnDelete:CASCADE"`
}

func (ContentModule) TableName() string {
	return "content_modules"
}

// OrganizationResponse is an organization the caller is a member of
type OrganizationResponse struct {
	ID       string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name     string `json:"name" example:"Acme Coffee"`
	Industry string `json:"industry" example:"Food & beverage"`
}
