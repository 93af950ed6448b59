package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goConsole/identity"
)

const maxBodyBytes = 1 << 20

// apiError covers both error shapes GoTrue has used: the OAuth style
// {"error","error_description"} and the newer {"code","error_code","msg"}.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e apiError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return ""
}

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (u userResponse) user() identity.User {
	out := identity.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
	for k, v := range u.UserMetadata {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if out.Metadata == nil {
			out.Metadata = make(map[string]string)
		}
		out.Metadata[k] = s
	}
	return out
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

// signupResponse is a session when autoconfirm is on, otherwise the bare user.
type signupResponse struct {
	tokenResponse
	userResponse
}

// do sends one request and decodes a 2xx JSON body into out. bearer
// defaults to the API key.
func (p *Provider) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.config.URL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	if bearer == "" {
		bearer = p.config.APIKey
	}
	req.Header.Set("apikey", p.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", identity.ErrUnavailable, ctxErr)
		}
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", identity.ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", identity.ErrUnavailable, err)
	}
	return nil
}

// classify maps a non-2xx response to an identity sentinel.
func classify(status int, body []byte) error {
	var e apiError
	_ = json.Unmarshal(body, &e)
	msg := e.text()
	if msg == "" {
		msg = http.StatusText(status)
	}
	lower := strings.ToLower(msg)

	switch {
	case status == http.StatusTooManyRequests || e.ErrorCode == "over_request_rate_limit" || e.ErrorCode == "over_email_send_rate_limit":
		return fmt.Errorf("%w: %s", identity.ErrRateLimited, msg)
	case e.ErrorCode == "refresh_token_not_found" || e.ErrorCode == "refresh_token_already_used" || e.ErrorCode == "session_not_found" || e.ErrorCode == "session_expired":
		return fmt.Errorf("%w: %s", identity.ErrSessionExpired, msg)
	case e.Error == "invalid_grant" || e.ErrorCode == "invalid_credentials" || e.ErrorCode == "invalid_grant":
		return fmt.Errorf("%w: %s", identity.ErrInvalidCredentials, msg)
	case e.ErrorCode == "user_already_exists" || e.ErrorCode == "email_exists" || strings.Contains(lower, "already registered"):
		return fmt.Errorf("%w: %s", identity.ErrAccountExists, msg)
	case status == http.StatusUnprocessableEntity || e.ErrorCode == "weak_password" || e.ErrorCode == "validation_failed":
		return fmt.Errorf("%w: %s", identity.ErrInvalidRequest, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", identity.ErrSessionExpired, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", identity.ErrUnavailable, status, msg)
	}
}
