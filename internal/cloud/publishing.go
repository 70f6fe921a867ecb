package cloud

import (
	"context"
	"log/slog"

	"github.com/vbonduro/listsync/internal/realtime"
)

// PublishingBackend announces every successful write on a realtime
// publisher. Use it with backends that have no change triggers of their own.
type PublishingBackend struct {
	Backend
	publisher realtime.Publisher
	logger    *slog.Logger
}

func NewPublishingBackend(b Backend, p realtime.Publisher, logger *slog.Logger) *PublishingBackend {
	return &PublishingBackend{Backend: b, publisher: p, logger: logger}
}

func (b *PublishingBackend) UpsertOwned(ctx context.Context, row Row) error {
	if err := b.Backend.UpsertOwned(ctx, row); err != nil {
		return err
	}
	b.publish(ctx, realtime.Change{
		Table:  realtime.TableLists,
		Op:     realtime.OpUpdate,
		ListID: row.ID,
		UserID: row.UserID,
		Origin: row.LastWriter,
	})
	return nil
}

// UpdateShared publishes without an owner: userID is a member, and the
// owner is not known here.
func (b *PublishingBackend) UpdateShared(ctx context.Context, userID string, patch Patch) error {
	if err := b.Backend.UpdateShared(ctx, userID, patch); err != nil {
		return err
	}
	b.publish(ctx, realtime.Change{
		Table:  realtime.TableLists,
		Op:     realtime.OpUpdate,
		ListID: patch.ID,
		Origin: patch.LastWriter,
	})
	return nil
}

func (b *PublishingBackend) InsertMembership(ctx context.Context, listID, userID string) error {
	if err := b.Backend.InsertMembership(ctx, listID, userID); err != nil {
		return err
	}
	b.publish(ctx, realtime.Change{Table: realtime.TableMembers, Op: realtime.OpInsert, ListID: listID, UserID: userID})
	return nil
}

func (b *PublishingBackend) DeleteMembership(ctx context.Context, listID, userID string) error {
	if err := b.Backend.DeleteMembership(ctx, listID, userID); err != nil {
		return err
	}
	b.publish(ctx, realtime.Change{Table: realtime.TableMembers, Op: realtime.OpDelete, ListID: listID, UserID: userID})
	return nil
}

func (b *PublishingBackend) DeleteOwned(ctx context.Context, listID, userID string) (int64, error) {
	n, err := b.Backend.DeleteOwned(ctx, listID, userID)
	if err != nil || n == 0 {
		return n, err
	}
	b.publish(ctx, realtime.Change{Table: realtime.TableLists, Op: realtime.OpDelete, ListID: listID, UserID: userID})
	return n, nil
}

// publish failures are logged only; the write itself already committed.
func (b *PublishingBackend) publish(ctx context.Context, c realtime.Change) {
	if err := b.publisher.Publish(ctx, c); err != nil {
		b.logger.Warn("failed to publish list change", "table", c.Table, "op", c.Op, "list_id", c.ListID, "error", err)
	}
}
