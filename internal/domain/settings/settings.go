package settings

import (
	"strings"
	"time"

	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SingletonID is the fixed primary key of the one settings row
var SingletonID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Password cost for bcrypt
const bcryptCost = 12

// Settings is the process-wide configuration record: the API bearer
// token, the external enrichment agent endpoint, and the externally
// reachable base URL used to build webhook callbacks
type Settings struct {
	shared.BaseAggregateRoot
	APIToken          string
	AgentURL          string
	AgentKey          string
	BaseURL           string
	AdminPasswordHash string
}

// NewSettings creates the settings record with its fixed ID
func NewSettings() *Settings {
	now := time.Now()
	return &Settings{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        SingletonID,
				CreatedAt: now,
				UpdatedAt: now,
			},
			Version: 1,
		},
	}
}

// UpdateAPIToken changes the API bearer token
func (s *Settings) UpdateAPIToken(token string) {
	s.APIToken = strings.TrimSpace(token)
	s.markUpdated()
}

// UpdateAgent changes the external agent endpoint and key
func (s *Settings) UpdateAgent(agentURL, agentKey string) error {
	trimmed := strings.TrimSpace(agentURL)
	if trimmed != "" && !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return shared.NewDomainError("INVALID_AGENT_URL", "Agent URL must start with http:// or https://")
	}
	s.AgentURL = strings.TrimRight(trimmed, "/")
	s.AgentKey = strings.TrimSpace(agentKey)
	s.markUpdated()
	return nil
}

// UpdateBaseURL changes the externally reachable base URL
func (s *Settings) UpdateBaseURL(baseURL string) error {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed != "" && !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return shared.NewDomainError("INVALID_BASE_URL", "Base URL must start with http:// or https://")
	}
	s.BaseURL = strings.TrimRight(trimmed, "/")
	s.markUpdated()
	return nil
}

// SetAdminPassword hashes and stores a new admin password
func (s *Settings) SetAdminPassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_FAILED", "Failed to hash password")
	}
	s.AdminPasswordHash = string(hash)
	s.markUpdated()
	return nil
}

// VerifyAdminPassword checks a password against the stored hash
func (s *Settings) VerifyAdminPassword(password string) bool {
	if s.AdminPasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.AdminPasswordHash), []byte(password)) == nil
}

// AgentConfigured reports whether the agent endpoint is usable
func (s *Settings) AgentConfigured() bool {
	return s.AgentURL != ""
}

func (s *Settings) markUpdated() {
	s.Touch()
	s.IncrementVersion()
}
