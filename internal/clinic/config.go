package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Profile is the clinic letterhead printed on every invoice.
type Profile struct {
	Name         string   `json:"name"`
	Tagline      string   `json:"tagline"`
	Phone        string   `json:"phone"`
	Doctor       string   `json:"doctor"`
	AddressLines []string `json:"address_lines"`
	Registration string   `json:"registration"`
	Terms        []string `json:"terms"`
}

// DefaultProfile returns the letterhead used when nothing has been stored.
func DefaultProfile() *Profile {
	return &Profile{
		Name:    "PAL Physiotherapy & Sports Rehab",
		Tagline: "Professional Healthcare Sessions",
		Phone:   "+91 8639398229",
		Doctor:  "Dr. Bhuvana",
		AddressLines: []string{
			"Plot No. 1-89/A/3/15, Vittal Rao Nagar,",
			"Madhapur, Hyderabad, Telangana 500081",
		},
		Registration: "UDYAM-TS-09-0137821",
		Terms: []string{
			"The clinic is not responsible for severe reactions during prescribed medical treatment unless due to office personnel without proper supervision.",
			"Clients are required to disclose any pre-existing medical conditions, injuries, or medications before starting therapy.",
			"The clinic shall not be held liable for complications arising from undisclosed medical conditions.",
			"All pending sessions should agree to the treatment plan and appointment fee associated procedures.",
			"In case of disputes, efforts will be made to resolve them amicably. Jurisdiction for any legal matters will be Hyderabad, Telangana.",
		},
	}
}

// ErrInvalidProfile is returned when a profile is missing required fields.
var ErrInvalidProfile = errors.New("clinic: name and doctor are required")

// Validate checks the fields the invoice cannot do without.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Doctor) == "" {
		return ErrInvalidProfile
	}
	return nil
}

// Clone returns a deep copy so callers can mutate freely.
func (p *Profile) Clone() *Profile {
	out := *p
	out.AddressLines = append([]string(nil), p.AddressLines...)
	out.Terms = append([]string(nil), p.Terms...)
	return &out
}

// ProfileSource supplies the current clinic profile.
type ProfileSource interface {
	Get(ctx context.Context) (*Profile, error)
}

// StaticSource always returns the same profile.
type StaticSource struct {
	profile *Profile
}

// NewStaticSource wraps a fixed profile. A nil profile means DefaultProfile.
func NewStaticSource(p *Profile) *StaticSource {
	if p == nil {
		p = DefaultProfile()
	}
	return &StaticSource{profile: p}
}

// Get returns a copy of the wrapped profile.
func (s *StaticSource) Get(ctx context.Context) (*Profile, error) {
	return s.profile.Clone(), nil
}

// Store persists clinic profile overrides in Redis.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new clinic profile store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

const profileKey = "clinic:profile"

// Get retrieves the stored profile, returning the default if none is stored.
func (s *Store) Get(ctx context.Context) (*Profile, error) {
	data, err := s.redis.Get(ctx, profileKey).Bytes()
	if err == redis.Nil {
		return DefaultProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal profile: %w", err)
	}
	return &p, nil
}

// Set saves the clinic profile.
func (s *Store) Set(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("clinic: marshal profile: %w", err)
	}
	if err := s.redis.Set(ctx, profileKey, data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set profile: %w", err)
	}
	return nil
}
