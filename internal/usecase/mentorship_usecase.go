package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mentorhub/internal/entity"
	"mentorhub/internal/repository"
)

var (
	ErrNotRequestRecipient = errors.New("request is addressed to another mentor")
	ErrAlreadyResponded    = errors.New("request has already been responded to")
	ErrNotAMentor          = errors.New("target user is not a mentor")
)

// MentorshipUsecase covers the portal flows that feed the notification
// emitter: mentorship requests, their acceptance (which opens the
// conversation), and session booking.
type MentorshipUsecase interface {
	RequestMentorship(ctx context.Context, studentId, mentorId, message string) (entity.MentorshipRequest, error)
	RespondToRequest(ctx context.Context, requestId, mentorId string, accept bool) (entity.MentorshipRequest, error)
	PendingRequests(ctx context.Context, mentorId string) ([]entity.MentorshipRequest, error)
	BookSession(ctx context.Context, studentId, mentorId, topic string, scheduledAt time.Time) (entity.Session, error)
	Sessions(ctx context.Context, userId string) ([]entity.Session, error)
}

type mentorshipUsecase struct {
	mentorshipRepo repository.MentorshipRepository
	userRepo       repository.UserRepository
	conversationUc ConversationUsecase
	notificationUc NotificationUsecase
}

func NewMentorshipUsecase(
	mentorshipRepo repository.MentorshipRepository,
	userRepo repository.UserRepository,
	conversationUc ConversationUsecase,
	notificationUc NotificationUsecase,
) MentorshipUsecase {
	return &mentorshipUsecase{
		mentorshipRepo: mentorshipRepo,
		userRepo:       userRepo,
		conversationUc: conversationUc,
		notificationUc: notificationUc,
	}
}

func (m *mentorshipUsecase) RequestMentorship(ctx context.Context, studentId, mentorId, message string) (entity.MentorshipRequest, error) {
	student, err := m.userRepo.Get(ctx, studentId)
	if err != nil {
		return entity.MentorshipRequest{}, err
	}
	mentor, err := m.userRepo.Get(ctx, mentorId)
	if err != nil {
		return entity.MentorshipRequest{}, err
	}
	if mentor.Role != entity.RoleMentor {
		return entity.MentorshipRequest{}, ErrNotAMentor
	}

	// A pending request for the pair is returned as-is instead of piling
	// up duplicates.
	existing, err := m.mentorshipRepo.GetPendingRequestByPair(ctx, mentorId, studentId)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrRequestNotFound) {
		return entity.MentorshipRequest{}, err
	}

	request := entity.MentorshipRequest{
		MentorId:  mentorId,
		StudentId: studentId,
		Message:   message,
	}
	request, err = m.mentorshipRepo.CreateRequest(ctx, request)
	if err != nil {
		return entity.MentorshipRequest{}, err
	}

	err = m.notificationUc.Emit(ctx, mentorId, "New Mentorship Request",
		fmt.Sprintf("%s has requested mentorship from you.", student.FullName))
	if err != nil {
		log.Printf("notify mentor %s about request %s: %v", mentorId, request.Id, err)
	}

	return request, nil
}

// RespondToRequest accepts or rejects a pending request. Acceptance opens
// the pair's conversation through the directory, so both entry points
// (explicit messaging and mentorship acceptance) converge on the same row.
func (m *mentorshipUsecase) RespondToRequest(ctx context.Context, requestId, mentorId string, accept bool) (entity.MentorshipRequest, error) {
	request, err := m.mentorshipRepo.GetRequest(ctx, requestId)
	if err != nil {
		return entity.MentorshipRequest{}, err
	}

	if request.MentorId != mentorId {
		return entity.MentorshipRequest{}, ErrNotRequestRecipient
	}
	if request.Status != entity.RequestStatusPending {
		return entity.MentorshipRequest{}, ErrAlreadyResponded
	}

	status := entity.RequestStatusRejected
	if accept {
		status = entity.RequestStatusAccepted
	}

	if err := m.mentorshipRepo.UpdateRequestStatus(ctx, requestId, status); err != nil {
		return entity.MentorshipRequest{}, err
	}
	request.Status = status
	now := time.Now()
	request.RespondedAt = &now

	if accept {
		if _, err := m.conversationUc.FindOrCreate(ctx, request.MentorId, request.StudentId, request.Id); err != nil {
			return entity.MentorshipRequest{}, err
		}

		mentor, err := m.userRepo.Get(ctx, mentorId)
		mentorName := mentorId
		if err == nil {
			mentorName = mentor.FullName
		}

		err = m.notificationUc.Emit(ctx, request.StudentId, "Mentorship Request Accepted",
			fmt.Sprintf("%s has accepted your mentorship request. You can now message each other.", mentorName))
		if err != nil {
			log.Printf("notify student %s about acceptance: %v", request.StudentId, err)
		}
	}

	return request, nil
}

func (m *mentorshipUsecase) PendingRequests(ctx context.Context, mentorId string) ([]entity.MentorshipRequest, error) {
	return m.mentorshipRepo.PendingRequestsForMentor(ctx, mentorId)
}

func (m *mentorshipUsecase) BookSession(ctx context.Context, studentId, mentorId, topic string, scheduledAt time.Time) (entity.Session, error) {
	student, err := m.userRepo.Get(ctx, studentId)
	if err != nil {
		return entity.Session{}, err
	}
	mentor, err := m.userRepo.Get(ctx, mentorId)
	if err != nil {
		return entity.Session{}, err
	}
	if mentor.Role != entity.RoleMentor {
		return entity.Session{}, ErrNotAMentor
	}

	session := entity.Session{
		MentorId:    mentorId,
		StudentId:   studentId,
		Topic:       topic,
		ScheduledAt: scheduledAt,
	}
	session, err = m.mentorshipRepo.CreateSession(ctx, session)
	if err != nil {
		return entity.Session{}, err
	}

	err = m.notificationUc.Emit(ctx, mentorId, "New Session Booked",
		fmt.Sprintf("%s has booked a session with you on %s.", student.FullName, scheduledAt.Format("Jan 2, 2006 3:04 PM")))
	if err != nil {
		log.Printf("notify mentor %s about session %s: %v", mentorId, session.Id, err)
	}

	return session, nil
}

func (m *mentorshipUsecase) Sessions(ctx context.Context, userId string) ([]entity.Session, error) {
	return m.mentorshipRepo.SessionsForUser(ctx, userId)
}
