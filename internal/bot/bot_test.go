package bot

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"feedback-bot/internal/models"
	"feedback-bot/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// fakeAPI records everything the bot sends without talking to Telegram.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) sentMessages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if mc, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, mc)
		}
	}
	return out
}

func (f *fakeAPI) sentEdits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.sent {
		if ec, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, ec)
		}
	}
	return out
}

func (f *fakeAPI) callbackAnswers() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if cc, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cc)
		}
	}
	return out
}

type findCall struct {
	filter repository.ListFilter
	limit  int64
	offset int64
}

// fakeStore is an in-memory FeedbackStore with scriptable failures.
type fakeStore struct {
	mu        sync.Mutex
	created   []*models.Feedback
	createErr error

	last      time.Time
	lastFound bool
	lastErr   error

	entries    []models.Feedback
	count      int64
	findErr    error
	countErr   error
	findCalls  []findCall
	countCalls int
}

func (s *fakeStore) Create(ctx context.Context, feedback *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	feedback.CreatedAt = time.Now()
	s.created = append(s.created, feedback)
	return nil
}

func (s *fakeStore) LastSubmittedAt(ctx context.Context, userID int64) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil {
		return time.Time{}, false, s.lastErr
	}
	return s.last, s.lastFound, nil
}

func (s *fakeStore) FindPage(ctx context.Context, filter repository.ListFilter, limit, offset int64) ([]models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls = append(s.findCalls, findCall{filter: filter, limit: limit, offset: offset})
	if s.findErr != nil {
		return nil, s.findErr
	}
	start := offset
	if start > int64(len(s.entries)) {
		start = int64(len(s.entries))
	}
	end := start + limit
	if end > int64(len(s.entries)) {
		end = int64(len(s.entries))
	}
	return s.entries[start:end], nil
}

func (s *fakeStore) Count(ctx context.Context, filter repository.ListFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls++
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.count, nil
}

// fakeNotifier delivers published messages on a channel so tests can wait
// for the background notification goroutine.
type fakeNotifier struct {
	ch chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan string, 8)}
}

func (f *fakeNotifier) Publish(ctx context.Context, message string) error {
	f.ch <- message
	return nil
}

func (f *fakeNotifier) wait(timeout time.Duration) (string, bool) {
	select {
	case m := <-f.ch:
		return m, true
	case <-time.After(timeout):
		return "", false
	}
}

const testAdminID int64 = 777

func newTestBot(store *fakeStore, notifier *fakeNotifier) (*Bot, *fakeAPI) {
	api := &fakeAPI{}
	log := logrus.New()
	log.SetOutput(io.Discard)

	sessions := NewSessionStore(2 * time.Hour)
	limiter := NewRateLimiter(store, 24*time.Hour, false)

	b := New(api, store, sessions, limiter, notifier, Config{
		AdminChatID: testAdminID,
		PageSize:    10,
	}, log)
	return b, api
}

func commandUpdate(userID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(cmd)},
		},
	}}
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
	}}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		Data: data,
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
	}}
}
