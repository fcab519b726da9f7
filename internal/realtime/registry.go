package realtime

import (
	"sort"
	"sync"
	"time"

	"ecshop/internal/domain/model"
)

const DefaultHistoryLimit = 200

// 接続中の1人
type Peer struct {
	SocketID string `json:"socket_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type ChatMessage struct {
	From      string     `json:"from"`
	Message   string     `json:"message"`
	Role      model.Role `json:"role"`
	Timestamp time.Time  `json:"timestamp"`
}

// 接続中のCS担当・ユーザーと、ユーザーごとのチャット履歴（メモリのみ）
type Registry struct {
	mu           sync.RWMutex
	agents       map[string]Peer
	users        map[string]Peer
	history      map[int64][]ChatMessage
	historyLimit int
}

func NewRegistry(historyLimit int) *Registry {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Registry{
		agents:       make(map[string]Peer),
		users:        make(map[string]Peer),
		history:      make(map[int64][]ChatMessage),
		historyLimit: historyLimit,
	}
}

func (r *Registry) AddAgent(p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[p.SocketID] = p
}

// ユーザーを登録して、そのユーザーの履歴を返す
func (r *Registry) AddUser(p Peer) []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[p.SocketID] = p
	return copyMessages(r.history[p.UserID])
}

// wasUserはユーザーとして登録されていたか
func (r *Registry) Remove(socketID string) (p Peer, wasUser bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.users[socketID]; ok {
		delete(r.users, socketID)
		return p, true, true
	}
	if p, ok := r.agents[socketID]; ok {
		delete(r.agents, socketID)
		return p, false, true
	}
	return Peer{}, false, false
}

func (r *Registry) IsAgent(socketID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[socketID]
	return ok
}

func (r *Registry) User(socketID string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.users[socketID]
	return p, ok
}

func (r *Registry) Agents() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedPeers(r.agents)
}

func (r *Registry) ActiveUsers() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedPeers(r.users)
}

// user_id -> socket_id。同じユーザーが複数接続していたらどれか1つ
func (r *Registry) UserSocketMap() map[int64]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := make(map[int64]string, len(r.users))
	for _, p := range sortedPeers(r.users) {
		m[p.UserID] = p.SocketID
	}
	return m
}

// 上限を超えたら古いものから捨てる
func (r *Registry) AppendHistory(userID int64, msg ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := append(r.history[userID], msg)
	if over := len(h) - r.historyLimit; over > 0 {
		h = append([]ChatMessage(nil), h[over:]...)
	}
	r.history[userID] = h
}

func (r *Registry) History(userID int64) []ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyMessages(r.history[userID])
}

func sortedPeers(m map[string]Peer) []Peer {
	out := make([]Peer, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SocketID < out[j].SocketID })
	return out
}

func copyMessages(src []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(src))
	copy(out, src)
	return out
}
