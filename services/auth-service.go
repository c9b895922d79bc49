package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"kanban-board/logging"
	"kanban-board/models"
	"kanban-board/utils"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// AuthService rešava identitet sesije: prosleđen token ako postoji,
// inače anonimna prijava. Pre spremnog identiteta nema pretplate na tablu.
type AuthService struct {
	verifyURL string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
}

func NewAuthService(verifyURL string, client *http.Client, breaker *gobreaker.CircuitBreaker) *AuthService {
	return &AuthService{
		verifyURL: verifyURL,
		client:    client,
		breaker:   breaker,
	}
}

// Resolve vraća spreman identitet. Bez tokena pravi anonimnog korisnika sa
// svežim userId; sa tokenom validira potpis i, ako je podešen spoljni
// provajder identiteta, proverava token i kod njega kroz circuit breaker.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		userID := "anon-" + uuid.New().String()
		signed, err := utils.GenerateToken(userID, true)
		if err != nil {
			logging.Logger.Errorf("Event ID: ANON_SIGNIN_FAILED, Description: Failed to sign anonymous token: %v", err)
			return nil, fmt.Errorf("failed to sign anonymous token: %v", err)
		}

		logging.Logger.Infof("Event ID: ANON_SIGNIN, Description: Anonymous identity %s resolved.", userID)
		return &models.Identity{UserID: userID, Token: signed, Anonymous: true, Ready: true}, nil
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		logging.Logger.Warnf("Event ID: TOKEN_SIGNIN_FAILED, Description: Custom token rejected: %v", err)
		return nil, err
	}

	if s.verifyURL != "" {
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.verifyRemote(ctx, token)
		})
		if err != nil {
			logging.Logger.Errorf("Event ID: IDENTITY_PROVIDER_ERROR, Description: External verification of token for user %s failed: %v", claims.UserID, err)
			return nil, fmt.Errorf("identity provider rejected token: %v", err)
		}
	}

	logging.Logger.Infof("Event ID: TOKEN_SIGNIN, Description: Identity %s resolved from custom token.", claims.UserID)
	return &models.Identity{UserID: claims.UserID, Token: token, Anonymous: claims.Anonymous, Ready: true}, nil
}

func (s *AuthService) verifyRemote(ctx context.Context, token string) error {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}
	return nil
}
