package login_test

import (
	"context"
	"regexp"
	"sync"

	"github.com/stretchr/testify/mock"

	login "github.com/goliatone/go-login"
	"github.com/goliatone/go-login/mailer"
)

// memoryStore is an AccountStore keeping copies of every saved account
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]login.Account
	saves    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: map[string]login.Account{}}
}

func (s *memoryStore) FindByEmail(ctx context.Context, email string) (*login.Account, error) {
	return s.find(func(a login.Account) bool { return a.Email == email })
}

func (s *memoryStore) FindByID(ctx context.Context, id string) (*login.Account, error) {
	return s.find(func(a login.Account) bool { return a.ID.String() == id })
}

func (s *memoryStore) FindByResetToken(ctx context.Context, token string) (*login.Account, error) {
	if token == "" {
		return nil, login.ErrAccountNotFound
	}
	return s.find(func(a login.Account) bool { return a.PasswordResetToken == token })
}

func (s *memoryStore) Save(ctx context.Context, account *login.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.accounts {
		if existing.Email == account.Email && id != account.ID.String() {
			return login.ErrConflict
		}
	}

	s.accounts[account.ID.String()] = *account
	s.saves++
	return nil
}

func (s *memoryStore) find(match func(login.Account) bool) (*login.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if match(a) {
			out := a
			return &out, nil
		}
	}
	return nil, login.ErrAccountNotFound
}

func (s *memoryStore) get(email string) login.Account {
	a, _ := s.FindByEmail(context.Background(), email)
	if a == nil {
		return login.Account{}
	}
	return *a
}

// outbox records delivered messages and can be told to fail
type outbox struct {
	mu       sync.Mutex
	messages []mailer.Message
	err      error
}

func (o *outbox) Send(ctx context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.messages = append(o.messages, msg)
	return nil
}

func (o *outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

func (o *outbox) Last() mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.messages) == 0 {
		return mailer.Message{}
	}
	return o.messages[len(o.messages)-1]
}

var linkTokenRe = regexp.MustCompile(`href="[^"]*/([^"/]+)"`)

// LastToken returns the token carried by the link of the last message
func (o *outbox) LastToken() string {
	m := linkTokenRe.FindStringSubmatch(o.Last().HTML)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// MockAccountStore implements login.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) FindByEmail(ctx context.Context, email string) (*login.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*login.Account), args.Error(1)
}

func (m *MockAccountStore) FindByID(ctx context.Context, id string) (*login.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*login.Account), args.Error(1)
}

func (m *MockAccountStore) FindByResetToken(ctx context.Context, token string) (*login.Account, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*login.Account), args.Error(1)
}

func (m *MockAccountStore) Save(ctx context.Context, account *login.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []login.ActivityEvent
}

func (r *recordingSink) Record(ctx context.Context, event login.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Types() []login.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]login.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
