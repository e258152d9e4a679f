package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
)

func TestCreateRun_FillsIDAndTime(t *testing.T) {
	db := newTestDB(t, &domain.BatchRun{})
	r := &domain.BatchRun{BatchID: "b1", EventID: "EV12345", UserID: "u1", Submitted: 2, Succeeded: 1, Failed: 1, Outcome: domain.OutcomePartial}
	if err := CreateRun(context.Background(), db, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if r.ID == "" || r.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp: %+v", r)
	}

	got, err := GetRun(context.Background(), db, "b1", r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Outcome != domain.OutcomePartial || got.Succeeded != 1 || got.Failed != 1 {
		t.Fatalf("unexpected run: %+v", got)
	}
}

func TestGetRun_WrongBatch_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.BatchRun{})
	r := &domain.BatchRun{ID: "r1", BatchID: "b1", EventID: "EV12345", UserID: "u1", Outcome: domain.OutcomeSuccess}
	if err := CreateRun(context.Background(), db, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if _, err := GetRun(context.Background(), db, "b2", "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRuns_Ordered(t *testing.T) {
	db := newTestDB(t, &domain.BatchRun{})
	ctx := context.Background()
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range []*domain.BatchRun{
		{ID: "late", BatchID: "b1", EventID: "EV12345", UserID: "u1", Outcome: domain.OutcomeSuccess, CreatedAt: base.Add(time.Hour)},
		{ID: "early", BatchID: "b1", EventID: "EV12345", UserID: "u1", Outcome: domain.OutcomeFailed, CreatedAt: base},
		{ID: "other", BatchID: "b2", EventID: "EV12345", UserID: "u1", Outcome: domain.OutcomeSuccess, CreatedAt: base},
	} {
		if err := CreateRun(ctx, db, r); err != nil {
			t.Fatalf("CreateRun %s: %v", r.ID, err)
		}
	}
	runs, err := ListRuns(ctx, db, "b1")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "early" || runs[1].ID != "late" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}
