package cachestore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Credential is the single-row table holding the auth token between CLI runs.
type Credential struct {
	CredentialID string    `gorm:"type:uuid;primaryKey"`
	Token        string    `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (Credential) TableName() string { return "credentials" }

func (credential *Credential) BeforeCreate(tx *gorm.DB) error {
	if credential.CredentialID == "" {
		credential.CredentialID = uuid.NewString()
	}
	return nil
}

// CachedPayload stores one fetched resource payload keyed by resource name.
type CachedPayload struct {
	PayloadID string         `gorm:"type:uuid;primaryKey"`
	Key       string         `gorm:"not null;index:idx_cached_payloads_key,unique"`
	Payload   datatypes.JSON `gorm:"not null"`
	FetchedAt time.Time      `gorm:"not null"`
}

func (CachedPayload) TableName() string { return "cached_payloads" }

func (payload *CachedPayload) BeforeCreate(tx *gorm.DB) error {
	if payload.PayloadID == "" {
		payload.PayloadID = uuid.NewString()
	}
	return nil
}
