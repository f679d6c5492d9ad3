package settings

import (
	"context"
	"time"

	"github.com/anycrm/backend/internal/domain/settings"
	"github.com/anycrm/backend/internal/domain/shared"
)

// TokenIssuer issues admin session tokens after a successful login.
// Implemented by the infrastructure auth layer.
type TokenIssuer interface {
	GenerateToken() (string, time.Time, error)
}

// SettingsResponse is the settings payload returned to clients. Secrets are
// masked; only their configured state is exposed.
type SettingsResponse struct {
	APITokenSet  bool      `json:"api_token_set"`
	APITokenHint string    `json:"api_token_hint,omitempty"`
	AgentURL     string    `json:"agent_url"`
	AgentKeySet  bool      `json:"agent_key_set"`
	BaseURL      string    `json:"base_url"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdateSettingsRequest carries a partial settings update
type UpdateSettingsRequest struct {
	APIToken *string `json:"api_token"`
	AgentURL *string `json:"agent_url"`
	AgentKey *string `json:"agent_key"`
	BaseURL  *string `json:"base_url"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

// LoginRequest carries admin login credentials
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued session token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service handles settings reads and updates plus admin login
type Service struct {
	repo   settings.Repository
	issuer TokenIssuer
}

// NewService creates a new settings Service
func NewService(repo settings.Repository, issuer TokenIssuer) *Service {
	return &Service{
		repo:   repo,
		issuer: issuer,
	}
}

// Get returns the settings with secrets masked
func (s *Service) Get(ctx context.Context) (*SettingsResponse, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return toResponse(cfg), nil
}

// Update applies a partial settings update. Empty strings clear a field;
// nil fields are left alone.
func (s *Service) Update(ctx context.Context, req UpdateSettingsRequest) (*SettingsResponse, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.APIToken != nil {
		cfg.UpdateAPIToken(*req.APIToken)
	}
	if req.AgentURL != nil || req.AgentKey != nil {
		agentURL := cfg.AgentURL
		agentKey := cfg.AgentKey
		if req.AgentURL != nil {
			agentURL = *req.AgentURL
		}
		if req.AgentKey != nil {
			agentKey = *req.AgentKey
		}
		if err := cfg.UpdateAgent(agentURL, agentKey); err != nil {
			return nil, err
		}
	}
	if req.BaseURL != nil {
		if err := cfg.UpdateBaseURL(*req.BaseURL); err != nil {
			return nil, err
		}
	}
	if req.Password != nil {
		if err := cfg.SetAdminPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}

	return toResponse(cfg), nil
}

// Login verifies the admin password and issues a session token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if !cfg.VerifyAdminPassword(req.Password) {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid password")
	}

	token, expiresAt, err := s.issuer.GenerateToken()
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// APIToken returns the raw bearer token for request authentication
func (s *Service) APIToken(ctx context.Context) (string, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return "", err
	}
	return cfg.APIToken, nil
}

func toResponse(cfg *settings.Settings) *SettingsResponse {
	return &SettingsResponse{
		APITokenSet:  cfg.APIToken != "",
		APITokenHint: tokenHint(cfg.APIToken),
		AgentURL:     cfg.AgentURL,
		AgentKeySet:  cfg.AgentKey != "",
		BaseURL:      cfg.BaseURL,
		UpdatedAt:    cfg.UpdatedAt,
	}
}

// tokenHint keeps the last four characters so the admin can tell which
// token is active without exposing it
func tokenHint(token string) string {
	if len(token) <= 4 {
		return ""
	}
	return "..." + token[len(token)-4:]
}
