package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
)

type memoryActivityRepo struct {
	entries    []models.ActivityLog
	lastFilter repository.ActivityLogFilter
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.lastFilter = filter
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksSecrets(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    7,
		ActorRole:  "Teacher",
		Action:     "Session.Started",
		EntityType: "session",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"view_token": "abc",
			"join_code":  "K3X9QZ",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["view_token"])
	require.Equal(t, "K3X9QZ", entry.Metadata["join_code"])
	require.Equal(t, "teacher", entry.ActorRole)
	require.Equal(t, "session.started", entry.Action)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "quiz"})
	require.Error(t, err)
}

func TestActivityServiceListScopesTeachers(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	_, err := svc.List(context.Background(), teacher, dto.ActivityListRequest{ActorID: 99, PageSize: 10})
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.ActorID)
	require.Equal(t, teacher.ID, *repo.lastFilter.ActorID)

	_, err = svc.List(context.Background(), admin, dto.ActivityListRequest{ActorID: 99, EntityID: 3})
	require.NoError(t, err)
	require.Equal(t, uint(99), *repo.lastFilter.ActorID)
	require.Equal(t, uint(3), *repo.lastFilter.EntityID)
}

func TestActivityServiceListPagination(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())
	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{ActorID: 7, Action: "quiz.created", EntityType: "quiz"})
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), admin, dto.ActivityListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Pagination.TotalItems)
	require.Equal(t, 2, page.Pagination.TotalPages)
	require.Len(t, page.Items, 3)
}
