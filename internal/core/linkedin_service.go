package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gwi.com/linkedin-agent/internal/store"
	"gwi.com/linkedin-agent/internal/utils"
)

const (
	acceptNormalizedJSON   = "application/vnd.linkedin.normalized+json+2.1"
	acceptLanguage         = "en-US,en;q=0.9"
	restliProtocolVersion  = "2.0.0"
	defaultHeadline        = "No headline available"
	defaultProfilePhoto    = "/default-avatar.png"
	maxUpstreamBodyBytes   = 4 << 20
	defaultUpstreamTimeout = 15 * time.Second
)

// LinkedInService fetches the signed-in member's profile from the Voyager API.
type LinkedInService struct {
	httpClient *http.Client
	apiURL     string
	logger     *zap.Logger
}

func NewLinkedInService(apiURL string, timeout time.Duration, logger *zap.Logger) *LinkedInService {
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}
	return &LinkedInService{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     apiURL,
		logger:     logger,
	}
}

// FetchProfile issues a single request with the caller's session cookie and
// returns the normalized profile. There are no retries.
func (s *LinkedInService) FetchProfile(ctx context.Context, cookie, userAgent string) (*store.Profile, error) {
	if cookie == "" || userAgent == "" {
		return nil, ErrMissingCredentials
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating profile request: %w", err)
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptNormalizedJSON)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("csrf-token", utils.ExtractCSRFToken(cookie))
	req.Header.Set("x-restli-protocol-version", restliProtocolVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Error("LinkedIn API error",
			zap.Int("status", resp.StatusCode),
			zap.String("reason", resp.Status))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, &TransportError{Err: fmt.Errorf("empty profile document")}
	}
	var payload voyagerMe
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	profile := payload.normalize()
	return &profile, nil
}

// optionalString decodes a JSON string and treats null or any other JSON type
// as absent.
type optionalString struct {
	Value string
	Set   bool
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	*o = optionalString{}
	if len(data) == 0 || data[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value, o.Set = s, true
	return nil
}

type voyagerMe struct {
	FirstName        optionalString  `json:"firstName"`
	LastName         optionalString  `json:"lastName"`
	Headline         optionalString  `json:"headline"`
	PublicIdentifier optionalString  `json:"publicIdentifier"`
	ProfilePicture   json.RawMessage `json:"profilePicture"`
}

type voyagerPicture struct {
	DisplayImageReference struct {
		VectorImage struct {
			RootURL   optionalString `json:"rootUrl"`
			Artifacts []struct {
				FileIdentifyingURLPathSegment optionalString `json:"fileIdentifyingUrlPathSegment"`
			} `json:"artifacts"`
		} `json:"vectorImage"`
	} `json:"displayImageReference"`
}

func (m voyagerMe) normalize() store.Profile {
	headline := m.Headline.Value
	if headline == "" {
		headline = defaultHeadline
	}
	return store.Profile{
		Name:             m.FirstName.Value + " " + m.LastName.Value,
		Headline:         headline,
		ProfilePhoto:     m.photoURL(),
		PublicIdentifier: m.PublicIdentifier.Value,
	}
}

func (m voyagerMe) photoURL() string {
	raw := bytes.TrimSpace(m.ProfilePicture)
	if len(raw) == 0 || raw[0] != '{' {
		return defaultProfilePhoto
	}
	var pic voyagerPicture
	if err := json.Unmarshal(raw, &pic); err != nil {
		return defaultProfilePhoto
	}
	img := pic.DisplayImageReference.VectorImage
	if img.RootURL.Value == "" || len(img.Artifacts) == 0 {
		return defaultProfilePhoto
	}
	return img.RootURL.Value + img.Artifacts[0].FileIdentifyingURLPathSegment.Value
}
