package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"metrika/internal/models"
)

// StatusSetter is the slice of the user service presence needs.
type StatusSetter interface {
	SetStatus(ctx context.Context, id int64, status models.UserStatus) error
}

// Presence counts open sockets per user. The first socket marks the user
// online, closing the last one marks them offline.
type Presence struct {
	mu     sync.Mutex
	conns  map[int64]int
	status StatusSetter
}

func NewPresence(status StatusSetter) *Presence {
	return &Presence{conns: make(map[int64]int), status: status}
}

func (p *Presence) Join(userID int64) {
	p.mu.Lock()
	p.conns[userID]++
	first := p.conns[userID] == 1
	p.mu.Unlock()
	if first {
		p.set(userID, models.UserOnline)
	}
}

func (p *Presence) Leave(userID int64) {
	p.mu.Lock()
	n := p.conns[userID] - 1
	if n <= 0 {
		delete(p.conns, userID)
	} else {
		p.conns[userID] = n
	}
	p.mu.Unlock()
	if n <= 0 {
		p.set(userID, models.UserOffline)
	}
}

// Online reports how many sockets userID holds.
func (p *Presence) Online(userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns[userID]
}

func (p *Presence) set(userID int64, st models.UserStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.status.SetStatus(ctx, userID, st); err != nil {
		slog.Warn("presence update failed", "user_id", userID, "status", st, "err", err)
	}
}
