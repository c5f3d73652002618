package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"heatzy-to-mqtt/application"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	HeatzyDefaultBaseURL  = "https://euapi.gizwits.com/app"
	HeatzyApplicationID   = "c70a66ff039d41b4a220e198b0fcc8b3"
	HeatzyDefaultLanguage = "en"

	headerApplicationID = "X-Gizwits-Application-Id"
	headerUserToken     = "X-Gizwits-User-Token"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Lang     string `json:"lang"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type BindingModel struct {
	DID      string `json:"did"`
	DevAlias string `json:"dev_alias"`
}

type BindingsResponse struct {
	Devices *[]BindingModel `json:"devices"`
}

type DevdataResponse struct {
	Attr struct {
		Mode *string `json:"mode"`
	} `json:"attr"`
}

type ControlRequest struct {
	Raw [3]int `json:"raw"`
}

// ErrorResponse is the body gizwits sends along with a failed request.
type ErrorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	Detail       string `json:"detail_message"`
}

type HeatzyClientParams struct {
	Username string
	Password string

	BaseURL       string
	ApplicationID string
	Language      string

	// Timeout of a single request, zero leaves it to the transport.
	Timeout    time.Duration
	HTTPClient *http.Client

	Now func() time.Time

	Log zerolog.Logger
}

func (p *HeatzyClientParams) EnsureDefaults() {
	if p.BaseURL == "" {
		p.BaseURL = HeatzyDefaultBaseURL
	}

	if p.ApplicationID == "" {
		p.ApplicationID = HeatzyApplicationID
	}

	if p.Language == "" {
		p.Language = HeatzyDefaultLanguage
	}

	if p.HTTPClient == nil {
		p.HTTPClient = &http.Client{Timeout: p.Timeout}
	}

	if p.Now == nil {
		p.Now = time.Now
	}
}

type session struct {
	token     string
	expiresAt time.Time
}

// HeatzyClient talks to the gizwits cloud on behalf of one heatzy account. It
// logs in lazily and again whenever the token has expired. Concurrent callers
// seeing an expired token may each log in, the last token wins.
type HeatzyClient struct {
	params HeatzyClientParams

	mu      sync.RWMutex
	session *session

	log zerolog.Logger
}

func NewHeatzyClient(params HeatzyClientParams) (*HeatzyClient, error) {
	params.EnsureDefaults()

	if params.Username == "" || params.Password == "" {
		return nil, fmt.Errorf("heatzy username and password are required")
	}

	return &HeatzyClient{params: params, log: params.Log}, nil
}

func (h *HeatzyClient) ListBindings(ctx context.Context) ([]application.DeviceBinding, error) {
	var resp BindingsResponse
	if err := h.do(ctx, http.MethodGet, "/bindings", nil, &resp); err != nil {
		return nil, errors.Wrap(err, "could not retrieve bindings")
	}

	if resp.Devices == nil {
		return nil, errors.Mark(errors.New("bindings response has no devices"), application.ErrProtocol)
	}

	bindings := make([]application.DeviceBinding, 0, len(*resp.Devices))
	for _, device := range *resp.Devices {
		if device.DID == "" {
			return nil, errors.Mark(errors.New("binding without device id"), application.ErrProtocol)
		}
		bindings = append(bindings, application.DeviceBinding{
			DeviceID: device.DID,
			Alias:    device.DevAlias,
		})
	}
	return bindings, nil
}

func (h *HeatzyClient) ReadMode(ctx context.Context, deviceID string) (application.Mode, error) {
	var resp DevdataResponse
	if err := h.do(ctx, http.MethodGet, fmt.Sprintf("/devdata/%s/latest", deviceID), nil, &resp); err != nil {
		return "", errors.Wrapf(err, "could not retrieve devdata for device %s", deviceID)
	}

	if resp.Attr.Mode == nil {
		return "", errors.Mark(errors.Newf("devdata for device %s has no mode", deviceID), application.ErrProtocol)
	}

	mode, err := application.ParseVendorMode(*resp.Attr.Mode)
	if err != nil {
		return "", errors.Wrapf(err, "devdata for device %s", deviceID)
	}
	return mode, nil
}

func (h *HeatzyClient) WriteMode(ctx context.Context, deviceID string, mode application.Mode) error {
	code, err := mode.ControlCode()
	if err != nil {
		return err
	}

	body, err := json.Marshal(ControlRequest{Raw: code})
	if err != nil {
		return err
	}

	if err := h.do(ctx, http.MethodPost, fmt.Sprintf("/control/%s", deviceID), body, nil); err != nil {
		return errors.Wrapf(err, "could not set mode %s on device %s", mode, deviceID)
	}
	return nil
}

func (h *HeatzyClient) token(ctx context.Context) (string, error) {
	h.mu.RLock()
	s := h.session
	h.mu.RUnlock()

	if s != nil && !h.params.Now().After(s.expiresAt) {
		return s.token, nil
	}

	s, err := h.login(ctx)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.session = s
	h.mu.Unlock()

	return s.token, nil
}

func (h *HeatzyClient) login(ctx context.Context) (*session, error) {
	h.log.Debug().Msg("logging in")

	body, err := json.Marshal(loginRequest{
		Username: h.params.Username,
		Password: h.params.Password,
		Lang:     h.params.Language,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.params.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "creating login request"), application.ErrAuth)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerApplicationID, h.params.ApplicationID)

	respBody, status, err := h.send(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "login attempt failed"), application.ErrAuth)
	}
	if !isSuccess(status) {
		return nil, errors.Mark(statusError("login attempt failed", status, respBody), application.ErrAuth)
	}

	var resp loginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing login response"), application.ErrAuth)
	}
	if resp.Token == "" {
		return nil, errors.Mark(errors.New("login response has no token"), application.ErrAuth)
	}

	expiresAt := time.UnixMilli(resp.ExpiresAt * 1000)
	h.log.Debug().Time("expires_at", expiresAt).Msg("logged in")

	return &session{token: resp.Token, expiresAt: expiresAt}, nil
}

// do sends an authenticated request and decodes the answer into out when out is
// not nil.
func (h *HeatzyClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	token, err := h.token(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.params.BaseURL+path, bodyReader)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "creating request"), application.ErrTransport)
	}
	req.Header.Set(headerApplicationID, h.params.ApplicationID)
	req.Header.Set(headerUserToken, token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	respBody, status, err := h.send(req)
	if err != nil {
		return errors.Mark(err, application.ErrTransport)
	}
	if !isSuccess(status) {
		return errors.Mark(statusError(method+" "+path, status, respBody), application.ErrTransport)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Mark(errors.Wrap(err, "parsing response"), application.ErrProtocol)
	}
	return nil
}

func (h *HeatzyClient) send(req *http.Request) ([]byte, int, error) {
	resp, err := h.params.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "reading response")
	}

	h.log.Trace().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Msg("heatzy request")

	return respBody, resp.StatusCode, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func statusError(what string, status int, body []byte) error {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.ErrorMessage != "" {
		return errors.Newf("%s: status %d: %s (code %d)", what, status, resp.ErrorMessage, resp.ErrorCode)
	}
	return errors.Newf("%s: status %d", what, status)
}

var _ application.HeatzyClient = &HeatzyClient{}
