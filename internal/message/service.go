package message

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"message-service/internal/events"

	"github.com/go-playground/validator/v10"
)

type Service interface {
	ListMessages(ctx context.Context) ([]Message, error)
	GetMessage(ctx context.Context, id int64) (*Message, error)
	CreateMessage(ctx context.Context, req CreateMessageRequest) (*Message, error)
	UpdateMessage(ctx context.Context, id int64, req UpdateMessageRequest) (*Message, error)
	DeleteMessage(ctx context.Context, id int64) error
}

type service struct {
	repo      Repository
	publisher events.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) Service {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *service) ListMessages(ctx context.Context) ([]Message, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) GetMessage(ctx context.Context, id int64) (*Message, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) CreateMessage(ctx context.Context, req CreateMessageRequest) (*Message, error) {
	if err := s.validate.Struct(&req); err != nil {
		return nil, &ValidationError{Reason: "Both body and username are required"}
	}

	message := &Message{
		Body:     req.Body,
		Username: req.Username,
	}

	err := s.repo.RunInTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Create(ctx, message)
	})
	if err != nil {
		return nil, &PersistenceError{Op: OpCreate, Err: err}
	}

	s.publish(ctx, events.TypeMessageCreated, message)
	return message, nil
}

// UpdateMessage looks the message up before judging the payload, so an unknown
// id is reported as not found even when the payload is empty.
func (s *service) UpdateMessage(ctx context.Context, id int64, req UpdateMessageRequest) (*Message, error) {
	var (
		updated *Message
		changed bool
	)

	err := s.repo.RunInTx(ctx, func(ctx context.Context, repo Repository) error {
		message, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.IsEmpty() {
			return ErrNoUpdateData
		}
		if err := s.validate.Struct(&req); err != nil {
			return &ValidationError{Reason: "body and username must not be empty"}
		}
		if len(req.Ignored) > 0 {
			s.logger.DebugContext(ctx, "ignoring non-updatable fields", "id", id, "fields", req.Ignored)
		}

		columns := req.Apply(message)
		if err := repo.Update(ctx, message, columns...); err != nil {
			return err
		}
		updated = message
		changed = len(columns) > 0
		return nil
	})
	if err != nil {
		if isRequestError(err) {
			return nil, err
		}
		return nil, &PersistenceError{Op: OpUpdate, Err: err}
	}

	if changed {
		s.publish(ctx, events.TypeMessageUpdated, updated)
	}
	return updated, nil
}

func (s *service) DeleteMessage(ctx context.Context, id int64) error {
	var deleted *Message

	err := s.repo.RunInTx(ctx, func(ctx context.Context, repo Repository) error {
		message, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		deleted = message
		return nil
	})
	if err != nil {
		if isRequestError(err) {
			return err
		}
		return &PersistenceError{Op: OpDelete, Err: err}
	}

	s.publish(ctx, events.TypeMessageDeleted, deleted)
	return nil
}

// publish is best-effort: the write is already committed.
func (s *service) publish(ctx context.Context, eventType string, message *Message) {
	event := events.Event{
		Type:       eventType,
		Key:        strconv.FormatInt(message.ID, 10),
		Data:       message,
		OccurredAt: time.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish message event", "type", eventType, "id", message.ID, "error", err)
	}
}

func isRequestError(err error) bool {
	return errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrNoUpdateData) ||
		errors.Is(err, ErrInvalidInput)
}
