package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session 一条活跃的实时会话连接
type Session struct {
	SessionID uuid.UUID
	Conn      *websocket.Conn
}

// Registry 实时会话连接登记处
// 跟踪所有活跃的 /listen 连接，优雅停机时统一关闭
type Registry struct {
	sessions map[uuid.UUID]*Session
	mu       sync.RWMutex
}

// NewRegistry 创建登记处
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Register 登记会话
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = s
}

// Unregister 注销会话
func (r *Registry) Unregister(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Count 活跃会话数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll 关闭全部活跃连接（停机路径）
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		_ = s.Conn.Close()
		delete(r.sessions, id)
	}
}
