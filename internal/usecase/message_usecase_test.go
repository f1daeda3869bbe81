package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mentorhub/infrastructure/feed"
	"mentorhub/internal/entity"
	"mentorhub/internal/repository"
	"mentorhub/internal/usecase"
)

type messageFixture struct {
	uc               usecase.MessageUsecase
	conversation     entity.Conversation
	conversationRepo *fakeConversationRepo
	messageRepo      *fakeMessageRepo
	notificationRepo *fakeNotificationRepo
	changeFeed       *feed.MemoryFeed
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	messageRepo := newFakeMessageRepo()
	conversationRepo := newFakeConversationRepo(messageRepo)
	notificationRepo := newFakeNotificationRepo()
	userRepo := newFakeUserRepo(
		entity.User{Id: "mentor-1", FullName: "Maya Mentor", Role: entity.RoleMentor},
		entity.User{Id: "student-1", FullName: "Sam Student", Role: entity.RoleStudent},
		entity.User{Id: "outsider", FullName: "Olga Outsider", Role: entity.RoleStudent},
	)
	changeFeed := feed.NewMemoryFeed()
	t.Cleanup(func() { changeFeed.Close() })

	notificationUc := usecase.NewNotificationUsecase(notificationRepo, changeFeed)
	uc := usecase.NewMessageUsecase(messageRepo, conversationRepo, userRepo, notificationUc, changeFeed)

	id, err := conversationRepo.Create(context.Background(), entity.Conversation{
		MentorId:  "mentor-1",
		StudentId: "student-1",
	})
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	conversation, err := conversationRepo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("load conversation: %v", err)
	}

	return &messageFixture{
		uc:               uc,
		conversation:     conversation,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		changeFeed:       changeFeed,
	}
}

func TestSendPersistsAndNotifiesOtherParty(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	message, err := fx.uc.Send(ctx, fx.conversation.Id, "student-1", "  hi, are you free this week?  ", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if message.Id == "" {
		t.Fatal("message id not assigned")
	}
	if message.Body != "hi, are you free this week?" {
		t.Fatalf("body not trimmed: %q", message.Body)
	}
	if message.IsRead {
		t.Fatal("new message must start unread")
	}

	listed, err := fx.uc.List(ctx, fx.conversation.Id, "mentor-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].Id != message.Id {
		t.Fatalf("listed messages: %+v", listed)
	}

	// The recipient gets exactly one notification with sender and preview.
	mentorNotifs := fx.notificationRepo.forUser("mentor-1")
	if len(mentorNotifs) != 1 {
		t.Fatalf("mentor got %d notifications, want 1", len(mentorNotifs))
	}
	if mentorNotifs[0].Title != "New Message" {
		t.Fatalf("notification title: %q", mentorNotifs[0].Title)
	}
	if want := "Sam Student: hi, are you free this week?"; mentorNotifs[0].Message != want {
		t.Fatalf("notification message: got %q, want %q", mentorNotifs[0].Message, want)
	}
	if senderNotifs := fx.notificationRepo.forUser("student-1"); len(senderNotifs) != 0 {
		t.Fatalf("sender notified about own message: %+v", senderNotifs)
	}

	// Sending bumps the conversation's activity timestamp.
	conversation, err := fx.conversationRepo.Get(ctx, fx.conversation.Id)
	if err != nil {
		t.Fatalf("reload conversation: %v", err)
	}
	if conversation.UpdatedAt.Before(fx.conversation.UpdatedAt) {
		t.Fatal("updatedAt not bumped by send")
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := fx.uc.Send(ctx, fx.conversation.Id, "student-1", body, "")
		if !errors.Is(err, usecase.ErrEmptyMessage) {
			t.Fatalf("Send(%q): got %v, want ErrEmptyMessage", body, err)
		}
	}

	listed, err := fx.uc.List(ctx, fx.conversation.Id, "student-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("empty sends persisted: %+v", listed)
	}
}

func TestSendFileOnlyMessage(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	message, err := fx.uc.Send(ctx, fx.conversation.Id, "mentor-1", "", "https://files/report.pdf")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if message.FileUrl != "https://files/report.pdf" {
		t.Fatalf("file url: %q", message.FileUrl)
	}

	notifs := fx.notificationRepo.forUser("student-1")
	if len(notifs) != 1 {
		t.Fatalf("student got %d notifications, want 1", len(notifs))
	}
	if want := "Maya Mentor: sent a file"; notifs[0].Message != want {
		t.Fatalf("notification message: got %q, want %q", notifs[0].Message, want)
	}
}

func TestSendTruncatesNotificationPreview(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	long := strings.Repeat("a", 120)
	if _, err := fx.uc.Send(ctx, fx.conversation.Id, "student-1", long, ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	notifs := fx.notificationRepo.forUser("mentor-1")
	if len(notifs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifs))
	}
	want := "Sam Student: " + strings.Repeat("a", 80) + "..."
	if notifs[0].Message != want {
		t.Fatalf("preview not truncated: got %q, want %q", notifs[0].Message, want)
	}
}

func TestSendKeepsPreviewAtBoundary(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	exact := strings.Repeat("b", 80)
	if _, err := fx.uc.Send(ctx, fx.conversation.Id, "student-1", exact, ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	notifs := fx.notificationRepo.forUser("mentor-1")
	if len(notifs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifs))
	}
	if want := "Sam Student: " + exact; notifs[0].Message != want {
		t.Fatalf("boundary-length preview altered: got %q, want %q", notifs[0].Message, want)
	}
}

func TestSendRejectsNonParticipant(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	_, err := fx.uc.Send(ctx, fx.conversation.Id, "outsider", "let me in", "")
	if !errors.Is(err, usecase.ErrNotParticipant) {
		t.Fatalf("got %v, want ErrNotParticipant", err)
	}
	if _, err := fx.uc.List(ctx, fx.conversation.Id, "outsider"); !errors.Is(err, usecase.ErrNotParticipant) {
		t.Fatalf("List as outsider: got %v, want ErrNotParticipant", err)
	}
	if err := fx.uc.MarkRead(ctx, fx.conversation.Id, "outsider"); !errors.Is(err, usecase.ErrNotParticipant) {
		t.Fatalf("MarkRead as outsider: got %v, want ErrNotParticipant", err)
	}
	if _, err := fx.uc.Subscribe(ctx, fx.conversation.Id, "outsider"); !errors.Is(err, usecase.ErrNotParticipant) {
		t.Fatalf("Subscribe as outsider: got %v, want ErrNotParticipant", err)
	}
}

func TestSendUnknownConversation(t *testing.T) {
	fx := newMessageFixture(t)

	_, err := fx.uc.Send(context.Background(), "missing", "student-1", "hello", "")
	if !errors.Is(err, repository.ErrConversationNotFound) {
		t.Fatalf("got %v, want ErrConversationNotFound", err)
	}
}

func TestSendSurvivesNotificationFailure(t *testing.T) {
	fx := newMessageFixture(t)
	fx.notificationRepo.failCreate = true
	ctx := context.Background()

	message, err := fx.uc.Send(ctx, fx.conversation.Id, "student-1", "still goes through", "")
	if err != nil {
		t.Fatalf("Send with failing notification store: %v", err)
	}

	listed, err := fx.uc.List(ctx, fx.conversation.Id, "student-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].Id != message.Id {
		t.Fatalf("message lost when notification failed: %+v", listed)
	}
}

func TestListReturnsMessagesInOrder(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		if _, err := fx.uc.Send(ctx, fx.conversation.Id, "student-1", body, ""); err != nil {
			t.Fatalf("Send %q: %v", body, err)
		}
	}

	listed, err := fx.uc.List(ctx, fx.conversation.Id, "mentor-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != len(bodies) {
		t.Fatalf("got %d messages, want %d", len(listed), len(bodies))
	}
	for i, body := range bodies {
		if listed[i].Body != body {
			t.Fatalf("message %d: got %q, want %q", i, listed[i].Body, body)
		}
	}
}

func TestMarkReadIsScopedAndIdempotent(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	if _, err := fx.uc.Send(ctx, fx.conversation.Id, "student-1", "from student", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := fx.uc.Send(ctx, fx.conversation.Id, "mentor-1", "from mentor", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := fx.uc.MarkRead(ctx, fx.conversation.Id, "mentor-1"); err != nil {
			t.Fatalf("MarkRead round %d: %v", i, err)
		}
	}

	listed, err := fx.uc.List(ctx, fx.conversation.Id, "mentor-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, message := range listed {
		switch message.SenderId {
		case "student-1":
			if !message.IsRead {
				t.Fatalf("counterpart message still unread: %+v", message)
			}
		case "mentor-1":
			if message.IsRead {
				t.Fatalf("reader's own message flipped: %+v", message)
			}
		}
	}
}

func TestSubscribeDeliversLiveMessages(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()

	sub, err := fx.uc.Subscribe(ctx, fx.conversation.Id, "mentor-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	sent, err := fx.uc.Send(ctx, fx.conversation.Id, "student-1", "ping", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case live, ok := <-sub.Messages():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		if live.Id != sent.Id || live.Body != "ping" {
			t.Fatalf("live message mismatch: %+v", live)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live message")
	}
}
