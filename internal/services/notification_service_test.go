package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
)

func TestNotify_DedupeKey(t *testing.T) {
	ctx := context.Background()
	repo := newFakeNotifications()
	svc := NewNotificationService(repo)

	key := "task:3:complete:1:xp"
	require.NoError(t, svc.Notify(ctx, &models.Notification{RecipientID: 1, Title: "+20 XP", DedupeKey: &key}))
	require.NoError(t, svc.Notify(ctx, &models.Notification{RecipientID: 1, Title: "+20 XP", DedupeKey: &key}))

	got := repo.to(1)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotifyInfo, got[0].Type, "type defaults to info")

	assert.ErrorIs(t, svc.Notify(ctx, &models.Notification{Title: "orphan"}), ErrValidation)
	assert.ErrorIs(t, svc.Notify(ctx, &models.Notification{RecipientID: 1}), ErrValidation)
}

func TestMarkRead_OnlyRecipient(t *testing.T) {
	ctx := context.Background()
	repo := newFakeNotifications()
	svc := NewNotificationService(repo)

	n := &models.Notification{RecipientID: 1, Title: "hello"}
	require.NoError(t, svc.Notify(ctx, n))

	_, err := svc.MarkRead(ctx, n.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	cnt, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)

	read, err := svc.MarkRead(ctx, n.ID, 1)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	cnt, _ = svc.UnreadCount(ctx, 1)
	assert.Equal(t, 0, cnt)
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	repo := newFakeNotifications()
	svc := NewNotificationService(repo)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(ctx, &models.Notification{RecipientID: 1, Title: "ping"}))
	}
	require.NoError(t, svc.Notify(ctx, &models.Notification{RecipientID: 2, Title: "ping"}))

	n, err := svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	cnt, _ := svc.UnreadCount(ctx, 2)
	assert.Equal(t, 1, cnt)

	unread := false
	page, err := svc.List(ctx, 1, &unread, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
