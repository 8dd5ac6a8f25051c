package authentication

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mehmetcc/session-rotation-service/internal/user"
)

// placeholderToken occupies the token column between the insert that yields
// the record id and the update that stores the signed token embedding it.
const placeholderToken = "placeholder"

// RefreshToken is the server-side half of a refresh token. The signed token's
// tokenId claim must name a live record whose Token is byte-identical to it.
type RefreshToken struct {
	ID        string        `gorm:"primaryKey;size:36"`
	UserID    string        `gorm:"size:36;index;not null"`
	User      *user.Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Token     string        `gorm:"type:text;not null"`
	ExpiresAt time.Time     `gorm:"index;not null"`
	CreatedAt time.Time
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (r *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the record's own expiry has passed at now.
func (r *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Tokens is the pair handed to clients on register, login and refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Identity is the authenticated principal a gate injects into the request context.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	TokenID string `json:"tokenId"`
}
