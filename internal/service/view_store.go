package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrViewNotFound indicates the view token is unknown or expired.
var ErrViewNotFound = errors.New("question view not found or expired")

// ChoiceView records the choice order one student was shown.
type ChoiceView struct {
	SessionID   uint      `json:"session_id"`
	QuestionID  uint      `json:"question_id"`
	Permutation []int     `json:"permutation"`
	IssuedAt    time.Time `json:"issued_at"`
}

// ViewStore keeps issued choice orders until the matching answer arrives.
type ViewStore interface {
	Save(ctx context.Context, token string, view ChoiceView, ttl time.Duration) error
	Load(ctx context.Context, token string) (ChoiceView, error)
	Delete(ctx context.Context, token string) error
}

type redisViewStore struct {
	client *redis.Client
	prefix string
}

// NewRedisViewStore keeps views in Redis so any instance can score the
// answer.
func NewRedisViewStore(client *redis.Client) ViewStore {
	return &redisViewStore{client: client, prefix: "play:view:"}
}

func (s *redisViewStore) Save(ctx context.Context, token string, view ChoiceView, ttl time.Duration) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+token, payload, ttl).Err()
}

func (s *redisViewStore) Load(ctx context.Context, token string) (ChoiceView, error) {
	payload, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ChoiceView{}, ErrViewNotFound
		}
		return ChoiceView{}, err
	}

	var view ChoiceView
	if err := json.Unmarshal(payload, &view); err != nil {
		return ChoiceView{}, err
	}
	return view, nil
}

func (s *redisViewStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}

type memoryView struct {
	view      ChoiceView
	expiresAt time.Time
}

type memoryViewStore struct {
	mu    sync.Mutex
	views map[string]memoryView
	now   func() time.Time
}

// NewMemoryViewStore keeps views in process memory. Only suitable for a
// single instance without Redis.
func NewMemoryViewStore() ViewStore {
	return &memoryViewStore{views: make(map[string]memoryView), now: time.Now}
}

func (s *memoryViewStore) Save(_ context.Context, token string, view ChoiceView, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.views {
		if !entry.expiresAt.After(now) {
			delete(s.views, key)
		}
	}
	s.views[token] = memoryView{view: view, expiresAt: now.Add(ttl)}
	return nil
}

func (s *memoryViewStore) Load(_ context.Context, token string) (ChoiceView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.views[token]
	if !ok || !entry.expiresAt.After(s.now()) {
		return ChoiceView{}, ErrViewNotFound
	}
	return entry.view, nil
}

func (s *memoryViewStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.views, token)
	return nil
}
