package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aksaraymalaklisi/greentrail/internal/client"
)

// State is the session lifecycle position. Dependents must treat
// Bootstrapping as distinct from Unauthenticated so a reload does not
// flash a logged-out view before bootstrap resolves.
type State int

const (
	Bootstrapping State = iota
	Unauthenticated
	Authenticated
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type Snapshot struct {
	State State
	User  User
}

// Manager owns the session. Everything else reads it through Snapshot
// or a subscription, never through a private copy.
type Manager struct {
	api *client.Client

	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

func NewManager(api *client.Client) *Manager {
	return &Manager{
		api:  api,
		snap: Snapshot{State: Bootstrapping},
		subs: map[int]chan Snapshot{},
	}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().State == Authenticated
}

// AccessToken reads the stored access credential. The realtime channel
// embeds it in its connection URL.
func (m *Manager) AccessToken() string {
	return m.api.Store().Access()
}

// Subscribe returns a channel that receives every snapshot change,
// starting with the current one, and a cancel func that releases it.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Snapshot, 8)
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.snap

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
}

func (m *Manager) publish(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// Full buffer: evict the oldest snapshot so a slow
			// subscriber still ends up holding the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Bootstrap resolves the initial state from the credential store. A
// stored access credential that no longer resolves a profile is
// cleared, and the session starts unauthenticated.
func (m *Manager) Bootstrap(ctx context.Context) {
	if m.api.Store().Access() == "" {
		m.publish(Snapshot{State: Unauthenticated})
		return
	}
	user, err := m.fetchProfile(ctx)
	if err != nil {
		_ = m.api.Store().Clear()
		m.publish(Snapshot{State: Unauthenticated})
		return
	}
	m.publish(Snapshot{State: Authenticated, User: user})
}

// Login exchanges credentials for a token pair, persists it, then
// resolves the profile. Nothing is persisted when either step fails.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	data, err := m.api.Post(ctx, "login/", map[string]string{
		"username": username,
		"password": password,
	}, false)
	if err != nil {
		return err
	}

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := m.api.Store().SetAccess(pair.Access); err != nil {
		return err
	}
	if err := m.api.Store().SetRefresh(pair.Refresh); err != nil {
		return err
	}

	user, err := m.fetchProfile(ctx)
	if err != nil {
		_ = m.api.Store().Clear()
		return err
	}
	m.publish(Snapshot{State: Authenticated, User: user})
	return nil
}

// Register creates the account only. The caller routes to login; no
// session is established here.
func (m *Manager) Register(ctx context.Context, username, email, password, name string) (User, error) {
	data, err := m.api.Post(ctx, "register/", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"name":     name,
	}, false)
	if err != nil {
		return User{}, err
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Logout clears local state synchronously. No server call is involved.
func (m *Manager) Logout() {
	_ = m.api.Store().Clear()
	m.publish(Snapshot{State: Unauthenticated})
}

// UpdateUser replaces the in-memory profile without touching stored
// credentials. Used when a sub-profile field changed elsewhere.
func (m *Manager) UpdateUser(user User) {
	m.mu.RLock()
	state := m.snap.State
	m.mu.RUnlock()
	if state != Authenticated {
		return
	}
	m.publish(Snapshot{State: Authenticated, User: user})
}

func (m *Manager) fetchProfile(ctx context.Context) (User, error) {
	data, err := m.api.Get(ctx, "users/me/", true)
	if err != nil {
		return User{}, err
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return User{}, err
	}
	_ = m.api.Store().SetProfile(data)
	return user, nil
}
