package usecase_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mentorhub/internal/entity"
	"mentorhub/internal/repository"

	"github.com/google/uuid"
)

// In-memory fakes of the repository interfaces. They mirror the store
// semantics the usecases depend on: unique conversation pairs, stable
// message ordering, and owner-scoped notification reads.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func newFakeUserRepo(users ...entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]entity.User)}
	for _, u := range users {
		r.users[u.Id] = u
	}
	return r
}

func (r *fakeUserRepo) Get(_ context.Context, userId string) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userId]
	if !ok {
		return entity.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return entity.User{}, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Index(_ context.Context, filter entity.UserIndexFilter) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []entity.User
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if len(filter.Ids) > 0 {
			found := false
			for _, id := range filter.Ids {
				if id == u.Id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user entity.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Id = uuid.New().String()
	r.users[user.Id] = user
	return user.Id, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(context.Background(), email)
	return err == nil, nil
}

func (r *fakeUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) SetOnline(_ context.Context, userId string, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userId]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsOnline = online
	r.users[userId] = u
	return nil
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations []entity.Conversation
	messages      *fakeMessageRepo // backs the LastMessage projection
}

func newFakeConversationRepo(messages *fakeMessageRepo) *fakeConversationRepo {
	return &fakeConversationRepo{messages: messages}
}

func (r *fakeConversationRepo) Get(_ context.Context, conversationId string) (entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.Id == conversationId {
			return c, nil
		}
	}
	return entity.Conversation{}, repository.ErrConversationNotFound
}

func (r *fakeConversationRepo) GetByPair(_ context.Context, mentorId, studentId string) (entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.MentorId == mentorId && c.StudentId == studentId {
			return c, nil
		}
	}
	return entity.Conversation{}, repository.ErrConversationNotFound
}

func (r *fakeConversationRepo) Create(_ context.Context, conversation entity.Conversation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.MentorId == conversation.MentorId && c.StudentId == conversation.StudentId {
			return "", repository.ErrConversationExists
		}
	}
	conversation.Id = uuid.New().String()
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	r.conversations = append(r.conversations, conversation)
	return conversation.Id, nil
}

func (r *fakeConversationRepo) Index(_ context.Context, userId string) ([]entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.Conversation
	for _, c := range r.conversations {
		if c.MentorId == userId || c.StudentId == userId {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (r *fakeConversationRepo) TouchUpdatedAt(_ context.Context, conversationId string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.conversations {
		if c.Id == conversationId {
			r.conversations[i].UpdatedAt = at
			return nil
		}
	}
	return repository.ErrConversationNotFound
}

func (r *fakeConversationRepo) LastMessage(ctx context.Context, conversationId string) (entity.MessagePreview, error) {
	if r.messages == nil {
		return entity.MessagePreview{}, repository.ErrMessageNotFound
	}
	all, err := r.messages.GetByConversationId(ctx, conversationId, 0, 0)
	if err != nil || len(all) == 0 {
		return entity.MessagePreview{}, repository.ErrMessageNotFound
	}
	last := all[len(all)-1]
	return entity.MessagePreview{Body: last.Body, CreatedAt: last.CreatedAt}, nil
}

func (r *fakeConversationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []entity.Message
	seq      int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Get(_ context.Context, messageId string) (entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.Id == messageId {
			return m, nil
		}
	}
	return entity.Message{}, repository.ErrMessageNotFound
}

func (r *fakeMessageRepo) Create(_ context.Context, message entity.Message) (entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.Id = uuid.New().String()
	// Deterministic insertion order even when timestamps collide.
	r.seq++
	message.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Microsecond)
	message.IsRead = false
	r.messages = append(r.messages, message)
	return message, nil
}

func (r *fakeMessageRepo) GetByConversationId(_ context.Context, conversationId string, limit, offset int) ([]entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.Message
	for _, m := range r.messages {
		if m.ConversationId == conversationId {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Id < result[j].Id
	})
	if offset > 0 && offset < len(result) {
		result = result[offset:]
	}
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeMessageRepo) MarkConversationRead(_ context.Context, conversationId, readerId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.messages {
		if m.ConversationId == conversationId && m.SenderId != readerId && !m.IsRead {
			r.messages[i].IsRead = true
		}
	}
	return nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []entity.Notification
	failCreate    bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification entity.Notification) (entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return entity.Notification{}, errors.New("store unavailable")
	}
	notification.Id = uuid.New().String()
	notification.CreatedAt = time.Now()
	notification.IsRead = false
	r.notifications = append(r.notifications, notification)
	return notification, nil
}

func (r *fakeNotificationRepo) Get(_ context.Context, notificationId string) (entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.Id == notificationId {
			return n, nil
		}
	}
	return entity.Notification{}, repository.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) GetByUserId(_ context.Context, userId string) ([]entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.Notification
	for _, n := range r.notifications {
		if n.UserId == userId {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userId string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserId == userId && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, notificationId, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.Id == notificationId && n.UserId == userId {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.UserId == userId && !n.IsRead {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) forUser(userId string) []entity.Notification {
	result, _ := r.GetByUserId(context.Background(), userId)
	return result
}

type fakeMentorshipRepo struct {
	mu       sync.Mutex
	requests []entity.MentorshipRequest
	sessions []entity.Session
}

func newFakeMentorshipRepo() *fakeMentorshipRepo {
	return &fakeMentorshipRepo{}
}

func (r *fakeMentorshipRepo) CreateRequest(_ context.Context, request entity.MentorshipRequest) (entity.MentorshipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.Id = uuid.New().String()
	request.Status = entity.RequestStatusPending
	request.CreatedAt = time.Now()
	r.requests = append(r.requests, request)
	return request, nil
}

func (r *fakeMentorshipRepo) GetRequest(_ context.Context, requestId string) (entity.MentorshipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.Id == requestId {
			return req, nil
		}
	}
	return entity.MentorshipRequest{}, repository.ErrRequestNotFound
}

func (r *fakeMentorshipRepo) GetPendingRequestByPair(_ context.Context, mentorId, studentId string) (entity.MentorshipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.MentorId == mentorId && req.StudentId == studentId && req.Status == entity.RequestStatusPending {
			return req, nil
		}
	}
	return entity.MentorshipRequest{}, repository.ErrRequestNotFound
}

func (r *fakeMentorshipRepo) PendingRequestsForMentor(_ context.Context, mentorId string) ([]entity.MentorshipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.MentorshipRequest
	for _, req := range r.requests {
		if req.MentorId == mentorId && req.Status == entity.RequestStatusPending {
			result = append(result, req)
		}
	}
	return result, nil
}

func (r *fakeMentorshipRepo) UpdateRequestStatus(_ context.Context, requestId, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, req := range r.requests {
		if req.Id == requestId {
			now := time.Now()
			r.requests[i].Status = status
			r.requests[i].RespondedAt = &now
			return nil
		}
	}
	return repository.ErrRequestNotFound
}

func (r *fakeMentorshipRepo) CreateSession(_ context.Context, session entity.Session) (entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.Id = uuid.New().String()
	session.Status = entity.SessionStatusScheduled
	session.CreatedAt = time.Now()
	r.sessions = append(r.sessions, session)
	return session, nil
}

func (r *fakeMentorshipRepo) SessionsForUser(_ context.Context, userId string) ([]entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.Session
	for _, s := range r.sessions {
		if s.MentorId == userId || s.StudentId == userId {
			result = append(result, s)
		}
	}
	return result, nil
}
