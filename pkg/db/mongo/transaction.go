package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TransactionFunc runs inside a transaction. The ctx it receives carries
// the session, so repository calls made with it join the transaction.
// The function may be invoked more than once when the server reports a
// transient error such as a write conflict.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client        *mongo.Client
	maxCommitTime time.Duration
}

func NewTransactionManager(client *mongo.Client, maxCommitTime time.Duration) TransactionManager {
	return &mongoTransactionManager{
		client:        client,
		maxCommitTime: maxCommitTime,
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if m.maxCommitTime > 0 {
		txOpts.SetMaxCommitTime(&m.maxCommitTime)
	}

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	}, txOpts)
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
