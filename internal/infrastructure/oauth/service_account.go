package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/pkg/logger"
	"itinerary-service/pkg/retry"

	gojwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// DatastoreScope grants read/write access to Firestore documents
const DatastoreScope = "https://www.googleapis.com/auth/datastore"

// assertionLifetime is the expiry requested for every signed assertion
const assertionLifetime = time.Hour

// ServiceAccountTokenProvider exchanges a signed service account assertion for a bearer token
type ServiceAccountTokenProvider struct {
	config     *jwt.Config
	retryCfg   retry.Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewServiceAccountTokenProvider creates a token provider from a service account key file.
// The private key is checked here so signing cannot fail later.
func NewServiceAccountTokenProvider(credentialsJSON []byte, scopes []string, retryCfg retry.Config, logger logger.Logger) (*ServiceAccountTokenProvider, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	if _, err := gojwt.ParseRSAPrivateKeyFromPEM(config.PrivateKey); err != nil {
		return nil, fmt.Errorf("invalid service account private key: %w", err)
	}
	config.Expires = assertionLifetime

	return &ServiceAccountTokenProvider{
		config:     config,
		retryCfg:   retryCfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// Token performs a fresh exchange, retrying transient failures
func (p *ServiceAccountTokenProvider) Token(ctx context.Context) (string, error) {
	cfg := p.retryCfg
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		p.logger.Warn("Token exchange failed, retrying",
			"attempt", attempt,
			"delay", delay.String(),
			"error", err)
	}

	token, err := retry.Execute(ctx, cfg, retry.DefaultIsRetryable, p.exchange)
	if err != nil {
		return "", fmt.Errorf("failed to acquire token: %w", err)
	}
	return token, nil
}

func (p *ServiceAccountTokenProvider) exchange(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	// A new source per call so nothing is reused between exchanges
	token, err := p.config.TokenSource(ctx).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", &entity.DependencyError{Op: "token.exchange", StatusCode: re.Response.StatusCode, Err: err}
		}
		return "", &entity.DependencyError{Op: "token.exchange", Err: err}
	}
	if token.AccessToken == "" {
		return "", &entity.DependencyError{Op: "token.exchange", StatusCode: http.StatusBadGateway, Err: errors.New("empty access token")}
	}
	return token.AccessToken, nil
}

// AnonymousTokenProvider is used with stores that authenticate at connection level
type AnonymousTokenProvider struct{}

// Token returns an empty token
func (AnonymousTokenProvider) Token(context.Context) (string, error) {
	return "", nil
}
