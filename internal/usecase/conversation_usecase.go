package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"mentorhub/infrastructure/cache"
	"mentorhub/internal/entity"
	"mentorhub/internal/repository"
)

const counterpartCacheTTL = 5 * time.Minute

// ConversationUsecase is the conversation directory: it resolves the one
// conversation per (mentor, student) pair and lists a user's threads with
// enough denormalized data to render the sidebar.
type ConversationUsecase interface {
	FindOrCreate(ctx context.Context, mentorId, studentId, mentorshipRequestId string) (entity.Conversation, error)
	Get(ctx context.Context, conversationId, userId string) (entity.Conversation, error)
	ListForUser(ctx context.Context, userId string) ([]entity.ConversationSummary, error)
}

type conversationUsecase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	profileCache     *cache.MemCache
}

func NewConversationUsecase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	profileCache *cache.MemCache,
) ConversationUsecase {
	return &conversationUsecase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		profileCache:     profileCache,
	}
}

// FindOrCreate returns the pair's conversation, creating it on first
// contact. Concurrent callers converge on one row: the store's unique pair
// index turns the losing insert into ErrConversationExists, and the loser
// re-reads the winner.
func (c *conversationUsecase) FindOrCreate(ctx context.Context, mentorId, studentId, mentorshipRequestId string) (entity.Conversation, error) {
	if _, err := c.userRepo.Get(ctx, mentorId); err != nil {
		return entity.Conversation{}, err
	}
	if _, err := c.userRepo.Get(ctx, studentId); err != nil {
		return entity.Conversation{}, err
	}

	conversation, err := c.conversationRepo.GetByPair(ctx, mentorId, studentId)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, repository.ErrConversationNotFound) {
		return entity.Conversation{}, err
	}

	conversation = entity.Conversation{
		MentorId:            mentorId,
		StudentId:           studentId,
		MentorshipRequestId: mentorshipRequestId,
	}

	id, err := c.conversationRepo.Create(ctx, conversation)
	if err == nil {
		return c.conversationRepo.Get(ctx, id)
	}
	if errors.Is(err, repository.ErrConversationExists) {
		// Lost the race; the other caller's row is the conversation.
		return c.conversationRepo.GetByPair(ctx, mentorId, studentId)
	}

	return entity.Conversation{}, err
}

func (c *conversationUsecase) Get(ctx context.Context, conversationId, userId string) (entity.Conversation, error) {
	conversation, err := c.conversationRepo.Get(ctx, conversationId)
	if err != nil {
		return entity.Conversation{}, err
	}

	if !conversation.HasParticipant(userId) {
		return entity.Conversation{}, ErrNotParticipant
	}

	return conversation, nil
}

// ListForUser returns the user's conversations, most recently active
// first, each annotated with the counterpart profile and the latest
// message preview. The preview is projected from the messages collection
// at query time.
func (c *conversationUsecase) ListForUser(ctx context.Context, userId string) ([]entity.ConversationSummary, error) {
	conversations, err := c.conversationRepo.Index(ctx, userId)
	if err != nil {
		return nil, err
	}

	summaries := make([]entity.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summary := entity.ConversationSummary{
			Conversation: conversation,
		}

		otherId := conversation.OtherParty(userId)
		if counterpart, err := c.counterpart(ctx, otherId); err == nil {
			summary.OtherUser = counterpart
		} else {
			log.Printf("resolve counterpart %s: %v", otherId, err)
			summary.OtherUser = entity.Counterpart{Id: otherId}
		}

		preview, err := c.conversationRepo.LastMessage(ctx, conversation.Id)
		if err == nil {
			summary.LastMessage = &preview
		} else if !errors.Is(err, repository.ErrMessageNotFound) {
			log.Printf("load last message of %s: %v", conversation.Id, err)
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (c *conversationUsecase) counterpart(ctx context.Context, userId string) (entity.Counterpart, error) {
	if cached, ok := c.profileCache.Get("counterpart:" + userId); ok {
		return cached.(entity.Counterpart), nil
	}

	user, err := c.userRepo.Get(ctx, userId)
	if err != nil {
		return entity.Counterpart{}, err
	}

	counterpart := entity.Counterpart{
		Id:        user.Id,
		FullName:  user.FullName,
		AvatarUrl: user.AvatarUrl,
	}
	c.profileCache.Set("counterpart:"+userId, counterpart, counterpartCacheTTL)

	return counterpart, nil
}
