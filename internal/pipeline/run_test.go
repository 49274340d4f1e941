package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pressline/internal/content"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/sitebuild"
)

func TestIsAllowedTransition_Lifecycle(t *testing.T) {
	allowed := []struct{ from, to RunStatus }{
		{StatusPending, StatusRunning},
		{StatusPending, StatusJoined}, // build-only shortcut
		{StatusRunning, StatusJoined},
		{StatusJoined, StatusBuilding},
		{StatusBuilding, StatusInvalidating},
		{StatusInvalidating, StatusSucceeded},
		{StatusPending, StatusFailed},
		{StatusRunning, StatusFailed},
		{StatusJoined, StatusFailed},
		{StatusBuilding, StatusFailed},
		{StatusInvalidating, StatusFailed},
	}
	for _, tc := range allowed {
		require.True(t, isAllowedTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	disallowed := []struct{ from, to RunStatus }{
		{StatusPending, StatusBuilding},
		{StatusPending, StatusInvalidating},
		{StatusPending, StatusSucceeded},
		{StatusRunning, StatusBuilding},
		{StatusRunning, StatusSucceeded},
		{StatusJoined, StatusRunning},
		{StatusJoined, StatusInvalidating},
		{StatusBuilding, StatusSucceeded},
		{StatusInvalidating, StatusBuilding},
		{StatusSucceeded, StatusFailed},
		{StatusFailed, StatusRunning},
		{StatusFailed, StatusFailed},
		{StatusSucceeded, StatusSucceeded},
	}
	for _, tc := range disallowed {
		require.False(t, isAllowedTransition(tc.from, tc.to), "%s -> %s should be disallowed", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	require.True(t, IsTerminal(StatusSucceeded))
	require.True(t, IsTerminal(StatusFailed))
	for _, s := range []RunStatus{StatusPending, StatusRunning, StatusJoined, StatusBuilding, StatusInvalidating} {
		require.False(t, IsTerminal(s), "%s is not terminal", s)
	}
}

func TestRunRecord_TransitionValidation(t *testing.T) {
	rec := NewRunRecord(RunRequest{Kind: KindManual, TriggeredAt: time.Now()})
	require.Equal(t, StatusPending, rec.Status())

	require.NoError(t, rec.Transition(StatusRunning))
	require.Equal(t, StatusRunning, rec.Status())

	err := rec.Transition(StatusSucceeded)
	require.Error(t, err)
	require.True(t, perrors.IsCategory(err, perrors.CategoryInternal))
	require.Equal(t, StatusRunning, rec.Status(), "failed transition must not move the state")
}

func TestRunRecord_FinishIsTerminal(t *testing.T) {
	rec := NewRunRecord(RunRequest{Kind: KindScheduled, TriggeredAt: time.Now()})
	cause := perrors.BuildFailed("execute", errors.New("exit 3"))
	require.NoError(t, rec.Transition(StatusRunning))
	require.NoError(t, rec.Finish(StatusFailed, StageBuild, cause, time.Now()))

	require.Equal(t, StatusFailed, rec.Status())
	require.ErrorIs(t, rec.Failure(), cause)

	err := rec.Finish(StatusFailed, StageBuild, cause, time.Now())
	require.Error(t, err, "terminal records must refuse another finish")
}

func TestRunView_SnapshotShape(t *testing.T) {
	triggered := time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)
	window := content.WeekOf(triggered)
	rec := NewRunRecord(RunRequest{Kind: KindScheduled, TriggeredAt: triggered, IsDraft: true})
	rec.Begin(triggered.Add(time.Second))

	item := content.ContentItem{
		Lang:         content.LangJA,
		Title:        "今週のまとめ",
		PubDateRange: window,
		ContentKey:   content.ContentKey("content", content.LangJA, window),
		ThumbnailKey: content.ThumbnailKey("content", content.LangJA, window),
		WordCount:    420,
	}
	rec.SetBranchResult(content.LangJA, BranchResult{Item: &item})
	rec.SetBranchResult(content.LangEN, BranchResult{
		Failure: &BranchFailure{Stage: StageGenerate, Err: errors.New("compose failed")},
	})
	rec.SetArtifact(sitebuild.BuildArtifact{
		Success:          true,
		ArtifactLocation: "/var/build/public",
		ToolVersion:      "1.2.3",
		Duration:         1500 * time.Millisecond,
	})

	v := rec.View()
	require.Equal(t, KindScheduled, v.Kind)
	require.True(t, v.IsDraft)
	require.Len(t, v.Branches, 2)
	// Sorted by language: en before ja.
	require.Equal(t, "en", v.Branches[0].Lang)
	require.False(t, v.Branches[0].Succeeded)
	require.Equal(t, StageGenerate, v.Branches[0].FailedStage)
	require.Contains(t, v.Branches[0].Error, "compose failed")
	require.Equal(t, "ja", v.Branches[1].Lang)
	require.True(t, v.Branches[1].Succeeded)
	require.Equal(t, "content/ja-digest-2026-01-05.md", v.Branches[1].ContentKey)
	require.Equal(t, 420, v.Branches[1].WordCount)
	require.NotNil(t, v.Artifact)
	require.Equal(t, int64(1500), v.Artifact.DurationMS)
}

func TestRunRequest_Age(t *testing.T) {
	now := time.Now()
	req := RunRequest{TriggeredAt: now.Add(-3 * time.Minute)}
	require.InDelta(t, float64(3*time.Minute), float64(req.Age(now)), float64(time.Second))
}
