package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/internal/domain/repository"
	"itinerary-service/pkg/logger"

	"google.golang.org/api/googleapi"
)

// DefaultFirestoreEndpoint is the public Firestore REST host
const DefaultFirestoreEndpoint = "https://firestore.googleapis.com"

// FirestoreStore implements DocumentStore over the Firestore REST API
type FirestoreStore struct {
	documentsURL string
	httpClient   *http.Client
	logger       logger.Logger
}

type firestoreDocument struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]Value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// NewFirestoreStore creates a store for the given project and database.
// An empty endpoint means DefaultFirestoreEndpoint.
func NewFirestoreStore(endpoint, projectID, databaseID string, logger logger.Logger) repository.DocumentStore {
	if endpoint == "" {
		endpoint = DefaultFirestoreEndpoint
	}
	if databaseID == "" {
		databaseID = "(default)"
	}

	return &FirestoreStore{
		documentsURL: fmt.Sprintf("%s/v1/projects/%s/databases/%s/documents",
			strings.TrimRight(endpoint, "/"), url.PathEscape(projectID), databaseID),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Create inserts a new document, failing with ErrDocumentExists on conflict
func (s *FirestoreStore) Create(ctx context.Context, token, collection, id string, fields map[string]any) error {
	encoded, err := EncodeFields(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	u := fmt.Sprintf("%s/%s?documentId=%s", s.documentsURL, url.PathEscape(collection), url.QueryEscape(id))
	_, err = s.do(ctx, "firestore.create", http.MethodPost, u, token, &firestoreDocument{Fields: encoded})
	if isStatus(err, http.StatusConflict) {
		return fmt.Errorf("%w: %s/%s", repository.ErrDocumentExists, collection, id)
	}
	return err
}

// Update patches the named fields of an existing document
func (s *FirestoreStore) Update(ctx context.Context, token, collection, id string, fields map[string]any) error {
	encoded, err := EncodeFields(fields)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}

	q := url.Values{}
	q.Set("currentDocument.exists", "true")
	for _, k := range sortedKeys(fields) {
		q.Add("updateMask.fieldPaths", k)
	}

	u := fmt.Sprintf("%s?%s", s.documentURL(collection, id), q.Encode())
	_, err = s.do(ctx, "firestore.update", http.MethodPatch, u, token, &firestoreDocument{Fields: encoded})
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s/%s", repository.ErrDocumentNotFound, collection, id)
	}
	return err
}

// Get fetches a document, nil when it does not exist
func (s *FirestoreStore) Get(ctx context.Context, token, collection, id string) (map[string]any, error) {
	body, err := s.do(ctx, "firestore.get", http.MethodGet, s.documentURL(collection, id), token, nil)
	if isStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc firestoreDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return DecodeFields(doc.Fields)
}

func (s *FirestoreStore) documentURL(collection, id string) string {
	return fmt.Sprintf("%s/%s/%s", s.documentsURL, url.PathEscape(collection), url.PathEscape(id))
}

func (s *FirestoreStore) do(ctx context.Context, op, method, u, token string, payload *firestoreDocument) ([]byte, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &entity.DependencyError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			if gerr.Code >= http.StatusInternalServerError {
				s.logger.Warn("Firestore returned server error", "op", op, "status", gerr.Code)
			}
			return nil, &entity.DependencyError{Op: op, StatusCode: gerr.Code, Err: err}
		}
		return nil, &entity.DependencyError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &entity.DependencyError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return data, nil
}

func isStatus(err error, code int) bool {
	var depErr *entity.DependencyError
	return errors.As(err, &depErr) && depErr.StatusCode == code
}
