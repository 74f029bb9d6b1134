package message_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"message-service/internal/events"
	"message-service/internal/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (message.Service, *fakeRepository, *recordingPublisher) {
	t.Helper()

	repo := newFakeRepository()
	publisher := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	return message.NewService(repo, publisher, logger), repo, publisher
}

func TestMessageService(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateMessage", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)

		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)

		assert.NotZero(t, created.ID)
		assert.NotZero(t, created.CreatedAt)
		assert.Equal(t, "hi", created.Body)
		assert.Equal(t, "ann", created.Username)
		assert.Equal(t, 1, repo.commits)
		assert.Equal(t, []string{events.TypeMessageCreated}, publisher.types())
	})

	t.Run("CreateMessage_MissingFields", func(t *testing.T) {
		cases := map[string]message.CreateMessageRequest{
			"missing body":     {Username: "ann"},
			"missing username": {Body: "hi"},
			"both empty":       {},
		}

		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				svc, repo, publisher := newTestService(t)

				_, err := svc.CreateMessage(ctx, req)

				assert.ErrorIs(t, err, message.ErrInvalidInput)
				var validationErr *message.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "Both body and username are required", validationErr.Reason)
				assert.Equal(t, 0, repo.count())
				assert.Empty(t, publisher.types())
			})
		}
	})

	t.Run("CreateMessage_PersistenceFailureRollsBack", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		repo.failOn("create", errors.New("disk full"))

		_, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})

		var persistenceErr *message.PersistenceError
		require.ErrorAs(t, err, &persistenceErr)
		assert.Equal(t, message.OpCreate, persistenceErr.Op)
		assert.Equal(t, "Failed to create message", persistenceErr.Summary())
		assert.EqualError(t, persistenceErr.Err, "disk full")
		assert.Equal(t, 0, repo.count())
		assert.Equal(t, 1, repo.rollbacks)
		assert.Empty(t, publisher.types())
	})

	t.Run("ListMessages_InsertionOrder", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		for _, body := range []string{"one", "two", "three"} {
			_, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: body, Username: "ann"})
			require.NoError(t, err)
		}

		messages, err := svc.ListMessages(ctx)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "one", messages[0].Body)
		assert.Equal(t, "two", messages[1].Body)
		assert.Equal(t, "three", messages[2].Body)
	})

	t.Run("ListMessages_Empty", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		messages, err := svc.ListMessages(ctx)
		require.NoError(t, err)
		assert.NotNil(t, messages)
		assert.Empty(t, messages)
	})

	t.Run("UpdateMessage_PartialUpdate", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)

		updated, err := svc.UpdateMessage(ctx, created.ID, message.UpdateMessageRequest{Body: ptr("bye")})
		require.NoError(t, err)

		assert.Equal(t, "bye", updated.Body)
		assert.Equal(t, "ann", updated.Username)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)

		stored, ok := repo.get(created.ID)
		require.True(t, ok)
		assert.Equal(t, "bye", stored.Body)
		assert.Equal(t, []string{events.TypeMessageCreated, events.TypeMessageUpdated}, publisher.types())
	})

	t.Run("UpdateMessage_NotFound", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		_, err := svc.UpdateMessage(ctx, 99999, message.UpdateMessageRequest{Body: ptr("bye")})

		assert.ErrorIs(t, err, message.ErrMessageNotFound)
		assert.Equal(t, 0, repo.count())
	})

	t.Run("UpdateMessage_NotFoundBeforeEmptyPayload", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.UpdateMessage(ctx, 99999, message.UpdateMessageRequest{})

		assert.ErrorIs(t, err, message.ErrMessageNotFound)
	})

	t.Run("UpdateMessage_EmptyPayload", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)

		_, err = svc.UpdateMessage(ctx, created.ID, message.UpdateMessageRequest{})

		assert.ErrorIs(t, err, message.ErrNoUpdateData)
		stored, _ := repo.get(created.ID)
		assert.Equal(t, "hi", stored.Body)
	})

	t.Run("UpdateMessage_EmptyValueRejected", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)

		_, err = svc.UpdateMessage(ctx, created.ID, message.UpdateMessageRequest{Username: ptr("")})

		assert.ErrorIs(t, err, message.ErrInvalidInput)
		stored, _ := repo.get(created.ID)
		assert.Equal(t, "ann", stored.Username)
	})

	t.Run("UpdateMessage_OnlyUnknownFields", func(t *testing.T) {
		svc, _, publisher := newTestService(t)
		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)

		updated, err := svc.UpdateMessage(ctx, created.ID, message.UpdateMessageRequest{Ignored: []string{"id"}})
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "hi", updated.Body)
		assert.Equal(t, []string{events.TypeMessageCreated}, publisher.types())
	})

	t.Run("UpdateMessage_PersistenceFailureRollsBack", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)
		repo.failOn("update", errors.New("deadlock detected"))

		_, err = svc.UpdateMessage(ctx, created.ID, message.UpdateMessageRequest{Body: ptr("bye")})

		var persistenceErr *message.PersistenceError
		require.ErrorAs(t, err, &persistenceErr)
		assert.Equal(t, message.OpUpdate, persistenceErr.Op)
		stored, _ := repo.get(created.ID)
		assert.Equal(t, "hi", stored.Body)
	})

	t.Run("DeleteMessage", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteMessage(ctx, created.ID))
		assert.Equal(t, 0, repo.count())

		_, err = svc.GetMessage(ctx, created.ID)
		assert.ErrorIs(t, err, message.ErrMessageNotFound)

		err = svc.DeleteMessage(ctx, created.ID)
		assert.ErrorIs(t, err, message.ErrMessageNotFound)

		assert.Equal(t, []string{events.TypeMessageCreated, events.TypeMessageDeleted}, publisher.types())
	})

	t.Run("DeleteMessage_PersistenceFailureRollsBack", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)
		repo.failOn("delete", errors.New("connection reset"))

		err = svc.DeleteMessage(ctx, created.ID)

		var persistenceErr *message.PersistenceError
		require.ErrorAs(t, err, &persistenceErr)
		assert.Equal(t, "Failed to delete message", persistenceErr.Summary())
		assert.Equal(t, 1, repo.count())
	})

	t.Run("PublishFailureDoesNotFailWrite", func(t *testing.T) {
		svc, repo, publisher := newTestService(t)
		publisher.err = errors.New("broker down")

		created, err := svc.CreateMessage(ctx, message.CreateMessageRequest{Body: "hi", Username: "ann"})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, 1, repo.count())
	})
}
