package store

import (
	"context"
	stderrors "errors"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStream appends each submission to a stream named after the collection.
// The server-assigned entry id carries the completion time.
type RedisStream struct {
	client redis.Cmdable
	closer func() error
}

func NewRedisStream(client redis.Cmdable) *RedisStream {
	s := &RedisStream{client: client, closer: func() error { return nil }}
	if c, ok := client.(interface{ Close() error }); ok {
		s.closer = c.Close
	}
	return s
}

func (s *RedisStream) Backend() string { return "redis" }

func (s *RedisStream) AppendRecord(ctx context.Context, collection string, doc models.SessionSubmission) error {
	payload, err := encode(doc)
	if err != nil {
		return errors.NewPayloadInvalidError(err.Error())
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: collection,
		ID:     "*",
		Values: []interface{}{
			"submissionId", doc.SubmissionID,
			"userId", doc.UserID,
			"document", string(payload),
		},
	}).Err()
	if err != nil {
		var replyErr redis.Error
		if stderrors.As(err, &replyErr) {
			return errors.NewStoreWriteRejectedError(s.Backend(), replyErr.Error())
		}
		return errors.NewStoreUnavailableError(s.Backend(), err)
	}
	return nil
}

func (s *RedisStream) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.NewStoreUnavailableError(s.Backend(), err)
	}
	return nil
}

func (s *RedisStream) Close() error {
	return s.closer()
}
