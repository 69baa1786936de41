package vendors

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/netbridge/iptv-migrator/internal/models"
)

// defaultServerDomains maps a destination server's display name (as
// shown in the Netplay panel) to the Maxplayer "domain id" for the same
// physical server. The two vendors share no identifiers, so this table
// is maintained by hand.
var defaultServerDomains = map[string]string{
	"Servidor Premium":  "4",
	"Servidor Plus":     "7",
	"Servidor Turbo":    "9",
	"Servidor Rei":      "12",
	"Servidor Master":   "15",
	"Servidor Diamante": "21",
}

// MaxUser is one hit of the reseller user search.
type MaxUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// MaxList is one of a Maxplayer user's playlists, bundling the IPTV
// credentials needed to rebuild it on another domain.
type MaxList struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	DomainID string `json:"domain_id"`
	IPTVInfo struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"iptv_info"`
}

// Maxplayer is the gateway to the secondary vendor. Its migration flow
// is structurally different from Netplay's: customers are identified by
// searching, not by a stored id, and "migrating" means re-pointing the
// customer's list at another domain while carrying its credentials.
type Maxplayer struct {
	client   *Client
	session  *Session
	email    string
	password string
	domains  map[string]string
}

// NewMaxplayer builds the Maxplayer gateway. A nil domains map falls
// back to the built-in table.
func NewMaxplayer(baseURL, email, password string, domains map[string]string, rps float64) *Maxplayer {
	session := &Session{}
	if domains == nil {
		domains = defaultServerDomains
	}
	m := &Maxplayer{
		client:   NewClient(baseURL, session, nil, rps),
		session:  session,
		email:    email,
		password: password,
		domains:  domains,
	}
	m.client.SetReauth(m.login)
	return m
}

// Session exposes the vendor session cache.
func (m *Maxplayer) Session() *Session {
	return m.session
}

// Login authenticates and caches the bearer token.
func (m *Maxplayer) Login(ctx context.Context) (string, error) {
	token, err := m.login(ctx)
	if err != nil {
		return "", err
	}
	m.session.Set(token)
	return token, nil
}

func (m *Maxplayer) login(ctx context.Context) (string, error) {
	body, err := m.client.PostAnon(ctx, "/login", map[string]string{
		"email":    m.email,
		"password": m.password,
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

// SearchUsers looks up reseller users by (partial) username.
func (m *Maxplayer) SearchUsers(ctx context.Context, username string) ([]MaxUser, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username required", ErrValidation)
	}
	params := url.Values{
		"search": {username},
		"limit":  {"10"},
	}
	var resp struct {
		Users []MaxUser `json:"users"`
	}
	if err := m.client.Get(ctx, "/view/reseller/search-users", params, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UserLists fetches a user's playlists with their IPTV credentials.
func (m *Maxplayer) UserLists(ctx context.Context, userID int64) ([]MaxList, error) {
	var resp struct {
		Lists []MaxList `json:"lists"`
	}
	path := "/view/reseller/user/" + strconv.FormatInt(userID, 10)
	if err := m.client.Get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}

// EditList re-submits a list under a new domain, carrying the existing
// IPTV credentials.
func (m *Maxplayer) EditList(ctx context.Context, listID int64, domainID, name, iptvUser, iptvPass string) error {
	payload := map[string]interface{}{
		"list_id":       listID,
		"domain_id":     domainID,
		"new_list_name": name,
		"iptv_username": iptvUser,
		"iptv_password": iptvPass,
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := m.client.Post(ctx, "/actions/reseller/edit-list", payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("edit-list rejected by Maxplayer")
	}
	return nil
}

// MigrateByUsername runs the whole secondary migration flow for one
// customer and reports the result as a status string. It never returns
// an error: the orchestrator aggregates these strings verbatim, and one
// customer's failure must not abort the batch.
func (m *Maxplayer) MigrateByUsername(ctx context.Context, username, destServerName string) string {
	if m.session.Token() == "" {
		if _, err := m.Login(ctx); err != nil {
			return "Erro ao autenticar no Maxplayer: " + err.Error()
		}
	}

	domainID, ok := m.domains[destServerName]
	if !ok {
		return fmt.Sprintf("Servidor %q sem domínio equivalente no Maxplayer", destServerName)
	}

	users, err := m.SearchUsers(ctx, username)
	if err != nil {
		return "Erro ao buscar usuário no Maxplayer: " + err.Error()
	}
	if len(users) == 0 {
		return models.StatusNotFound
	}

	lists, err := m.UserLists(ctx, users[0].ID)
	if err != nil {
		return "Erro ao buscar listas no Maxplayer: " + err.Error()
	}
	if len(lists) == 0 {
		return models.StatusNotFound
	}

	list := lists[0]
	if list.IPTVInfo.Username == "" || list.IPTVInfo.Password == "" {
		return "Dados IPTV incompletos no Maxplayer"
	}

	if err := m.EditList(ctx, list.ID, domainID, list.Name, list.IPTVInfo.Username, list.IPTVInfo.Password); err != nil {
		return "Erro ao migrar no Maxplayer: " + err.Error()
	}
	return models.StatusMigrated
}
