package vendors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/netbridge/iptv-migrator/internal/models"
)

// Netplay is the gateway to the primary vendor: the system of record
// for customer identity, servers and plans.
type Netplay struct {
	client   *Client
	session  *Session
	username string
	password string
}

// NewNetplay builds the Netplay gateway. Login is lazy: the first
// authenticated call that finds no cached token triggers it, and a 401
// mid-session re-logins once with the same credentials.
func NewNetplay(baseURL, username, password string, rps float64) *Netplay {
	session := &Session{}
	headers := map[string]string{
		"Origin":  strings.TrimSuffix(baseURL, "/api"),
		"Referer": strings.TrimSuffix(baseURL, "/api") + "/",
	}
	n := &Netplay{
		client:   NewClient(baseURL, session, headers, rps),
		session:  session,
		username: username,
		password: password,
	}
	n.client.SetReauth(n.login)
	return n
}

// Session exposes the vendor session cache (used by the route layer to
// require an explicit login before panel operations).
func (n *Netplay) Session() *Session {
	return n.session
}

// Login authenticates against the panel and caches the bearer token.
func (n *Netplay) Login(ctx context.Context) (string, error) {
	token, err := n.login(ctx)
	if err != nil {
		return "", err
	}
	n.session.Set(token)
	return token, nil
}

// LoginAs authenticates with explicit credentials (a reseller acting
// with their own panel account) and caches the token.
func (n *Netplay) LoginAs(ctx context.Context, username, password string) (string, error) {
	token, err := n.loginWith(ctx, username, password)
	if err != nil {
		return "", err
	}
	n.session.Set(token)
	return token, nil
}

func (n *Netplay) login(ctx context.Context) (string, error) {
	return n.loginWith(ctx, n.username, n.password)
}

func (n *Netplay) loginWith(ctx context.Context, username, password string) (string, error) {
	body, err := n.client.PostAnon(ctx, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	token, ok := parseToken(body)
	if !ok {
		return "", fmt.Errorf("%w: no token in login response", ErrAuth)
	}
	return token, nil
}

// ListServers returns the panel's servers with their nested plans. The
// envelope varies by panel version, so the decoder probes the known
// shapes in a fixed order.
func (n *Netplay) ListServers(ctx context.Context) ([]models.Server, error) {
	var raw json.RawMessage
	if err := n.client.Get(ctx, "/servers", nil, &raw); err != nil {
		return nil, err
	}
	return decodeServerList(raw)
}

// decodeServerList accepts the three observed server-list envelopes:
// {"data": [...]}, {"servers": [...]}, or a bare array.
func decodeServerList(body []byte) ([]models.Server, error) {
	var envelope struct {
		Data    []models.Server `json:"data"`
		Servers []models.Server `json:"servers"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Data != nil {
			return envelope.Data, nil
		}
		if envelope.Servers != nil {
			return envelope.Servers, nil
		}
	}
	var bare []models.Server
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	return nil, fmt.Errorf("unrecognized server list response: %s", truncate(string(body), 120))
}

// SearchCustomers queries the customer listing filtered by username
// and/or current server. At least one filter is required. An empty
// listing is reported as ErrNotFound.
func (n *Netplay) SearchCustomers(ctx context.Context, username, serverID string) ([]models.CustomerRecord, error) {
	if username == "" && serverID == "" {
		return nil, fmt.Errorf("%w: username or server filter required", ErrValidation)
	}

	params := url.Values{
		"page":    {"1"},
		"perPage": {"100"},
	}
	if username != "" {
		params.Set("username", username)
	}
	if serverID != "" {
		params.Set("serverId", serverID)
	}

	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := n.client.Get(ctx, "/customers", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no customers matched the filters", ErrNotFound)
	}

	records := make([]models.CustomerRecord, 0, len(resp.Data))
	for _, raw := range resp.Data {
		records = append(records, models.CustomerRecord{
			ID:       stringField(raw, "id"),
			Name:     stringField(raw, "name"),
			Username: stringField(raw, "username"),
			Server:   nameField(raw, "server"),
			Package:  nameField(raw, "package"),
			Renewal:  renewalFromTemplate(raw),
			Status:   stringField(raw, "status"),
		})
	}
	return records, nil
}

// MigrateCustomer moves a customer to a new server and/or plan. At
// least one destination field is required; empty fields are omitted
// from the payload.
func (n *Netplay) MigrateCustomer(ctx context.Context, customerID, serverID, packageID string) error {
	if serverID == "" && packageID == "" {
		return fmt.Errorf("%w: server_id or package_id required", ErrValidation)
	}

	payload := map[string]string{}
	if serverID != "" {
		payload["server_id"] = serverID
	}
	if packageID != "" {
		payload["package_id"] = packageID
	}
	return n.client.Put(ctx, "/customers/"+customerID+"/server-migration", payload, nil)
}
