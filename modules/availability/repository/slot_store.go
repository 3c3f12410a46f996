package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"schedulesync/core/constants"
	"schedulesync/core/database"
	"schedulesync/core/logger"
	"schedulesync/modules/availability/entity"
)

// Store-level sentinels. Services translate these into their own error
// taxonomy; HTTP never sees them directly.
var (
	// ErrNoDocument means no slot list exists for the user.
	ErrNoDocument = errors.New("slot list document does not exist")
	// ErrConflictRetriesExhausted means the optimistic-concurrency loop lost
	// every attempt. The caller must treat the outcome as unknown-failure,
	// not as a slot conflict.
	ErrConflictRetriesExhausted = errors.New("slot list update lost all optimistic-concurrency retries")
)

// SlotStore is the only gateway to the slot_lists table. The document is the
// atomicity unit: every write replaces the whole slot sequence under an
// optimistic version check, so check-then-set sequences inside an update fn
// are race-free.
type SlotStore interface {
	ReadDocument(ctx context.Context, userID uuid.UUID) (*entity.SlotList, error)
	TransactionalUpdate(ctx context.Context, userID uuid.UUID, fn func(doc *entity.SlotList) error) (*entity.SlotList, error)
	UpsertDocument(ctx context.Context, userID uuid.UUID, fn func(existing *entity.SlotList) entity.SlotSeq) (*entity.SlotList, error)
	ListDocuments(ctx context.Context) ([]entity.SlotList, error)
}

type slotStore struct {
	db database.IDatabase
}

func NewSlotStore(db database.IDatabase) SlotStore {
	return &slotStore{db: db}
}

func (s *slotStore) ReadDocument(ctx context.Context, userID uuid.UUID) (*entity.SlotList, error) {
	var doc entity.SlotList
	query := `SELECT user_id, slots, version, updated_at FROM slot_lists WHERE user_id = $1`
	err := s.db.GetContext(ctx, &doc, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SlotStore:ReadDocument:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return &doc, nil
}

// TransactionalUpdate reads the document, applies fn to a copy and writes the
// whole sequence back guarded by the version it read, with the read and the
// conditional write sharing one transaction. A lost race re-runs fn against a
// fresh snapshot, so fn must re-validate its preconditions every attempt. An
// error returned by fn is terminal and aborts without retrying.
func (s *slotStore) TransactionalUpdate(ctx context.Context, userID uuid.UUID, fn func(doc *entity.SlotList) error) (*entity.SlotList, error) {
	for attempt := 1; attempt <= constants.SlotStoreMaxRetries; attempt++ {
		var committed *entity.SlotList
		err := s.db.Transact(ctx, func(tx *sqlx.Tx) error {
			var doc entity.SlotList
			query := `SELECT user_id, slots, version, updated_at FROM slot_lists WHERE user_id = $1`
			if err := tx.GetContext(ctx, &doc, query, userID); err != nil {
				if err == sql.ErrNoRows {
					return ErrNoDocument
				}
				logger.Error("SlotStore:TransactionalUpdate:Read:Error", "error", err, "user_id", userID)
				return err
			}

			mutated := doc.Clone()
			if err := fn(mutated); err != nil {
				return err
			}

			res, err := tx.ExecContext(ctx, `
				UPDATE slot_lists
				SET slots = $3, version = version + 1, updated_at = NOW()
				WHERE user_id = $1 AND version = $2
			`, userID, doc.Version, mutated.Slots)
			if err != nil {
				logger.Error("SlotStore:TransactionalUpdate:Write:Error", "error", err, "user_id", userID)
				return err
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if rows == 1 {
				mutated.Version = doc.Version + 1
				committed = mutated
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if committed != nil {
			return committed, nil
		}

		logger.Warn("SlotStore:TransactionalUpdate:Conflict", "user_id", userID, "attempt", attempt)
	}

	return nil, ErrConflictRetriesExhausted
}

// UpsertDocument is TransactionalUpdate for writers that may create the
// document (the availability generator). fn receives nil when no document
// exists yet and returns the full replacement sequence.
func (s *slotStore) UpsertDocument(ctx context.Context, userID uuid.UUID, fn func(existing *entity.SlotList) entity.SlotSeq) (*entity.SlotList, error) {
	for attempt := 1; attempt <= constants.SlotStoreMaxRetries; attempt++ {
		existing, err := s.ReadDocument(ctx, userID)
		if err != nil {
			return nil, err
		}

		slots := fn(existing)

		if existing == nil {
			inserted, err := s.insertIfAbsent(ctx, userID, slots)
			if err != nil {
				return nil, err
			}
			if inserted != nil {
				return inserted, nil
			}
			// Row appeared between read and insert; retry against it.
			logger.Warn("SlotStore:UpsertDocument:InsertRace", "user_id", userID, "attempt", attempt)
			continue
		}

		updated, err := s.compareAndSwap(ctx, userID, existing.Version, slots)
		if err != nil {
			return nil, err
		}
		if updated {
			return &entity.SlotList{
				UserID:  userID,
				Slots:   slots,
				Version: existing.Version + 1,
			}, nil
		}

		logger.Warn("SlotStore:UpsertDocument:Conflict", "user_id", userID, "attempt", attempt)
	}

	return nil, ErrConflictRetriesExhausted
}

func (s *slotStore) ListDocuments(ctx context.Context) ([]entity.SlotList, error) {
	var docs []entity.SlotList
	query := `SELECT user_id, slots, version, updated_at FROM slot_lists ORDER BY user_id`
	if err := s.db.SelectContext(ctx, &docs, query); err != nil {
		logger.Error("SlotStore:ListDocuments:Error", "error", err)
		return nil, err
	}
	return docs, nil
}

// compareAndSwap replaces the whole document iff the version is unchanged.
// Returns false on a version conflict.
func (s *slotStore) compareAndSwap(ctx context.Context, userID uuid.UUID, expectedVersion int64, slots entity.SlotSeq) (bool, error) {
	query := `
		UPDATE slot_lists
		SET slots = $3, version = version + 1, updated_at = NOW()
		WHERE user_id = $1 AND version = $2
	`
	res, err := s.db.SQLx().ExecContext(ctx, query, userID, expectedVersion, slots)
	if err != nil {
		logger.Error("SlotStore:CompareAndSwap:Error", "error", err, "user_id", userID)
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// insertIfAbsent creates the document; returns nil, nil when another writer
// created it first.
func (s *slotStore) insertIfAbsent(ctx context.Context, userID uuid.UUID, slots entity.SlotSeq) (*entity.SlotList, error) {
	query := `
		INSERT INTO slot_lists (user_id, slots, version, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	res, err := s.db.SQLx().ExecContext(ctx, query, userID, slots)
	if err != nil {
		logger.Error("SlotStore:InsertIfAbsent:Error", "error", err, "user_id", userID)
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, nil
	}
	return &entity.SlotList{UserID: userID, Slots: slots, Version: 1}, nil
}
