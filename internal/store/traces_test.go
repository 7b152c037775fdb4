package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/tracekit/pkg/throwable"
)

func npeTrace() *throwable.Node {
	return &throwable.Node{
		Name:    "java.lang.IllegalStateException",
		Message: "worker failed",
		Frames: []throwable.Frame{
			{ClassName: "com.acme.Worker", MethodName: "run", FileName: "Worker.java", LineNumber: 41, CodeLocation: "acme.jar", Version: "2.1", Exact: true},
		},
		Cause: &throwable.Node{
			Name: "java.lang.NullPointerException",
			Frames: []throwable.Frame{
				{ClassName: "com.acme.Repo", MethodName: "load", LineNumber: throwable.UnknownSource},
			},
			OmittedElements: 1,
		},
	}
}

func TestSaveTrace_InsertThenDeduplicate(t *testing.T) {
	db := openTestDB(t)

	first, created, err := SaveTrace(db, npeTrace(), "app.log", 0)
	require.NoError(t, err)
	require.True(t, created)
	assert.Contains(t, first.ID, "trc_")
	assert.Equal(t, "java.lang.IllegalStateException", first.Name)
	assert.Equal(t, "worker failed", first.Message)
	assert.Equal(t, throwable.Format(npeTrace(), true), first.Body)
	assert.Equal(t, throwable.Fingerprint(npeTrace()), first.Fingerprint)
	assert.Equal(t, 2, first.FrameCount)
	assert.Equal(t, 2, first.Depth)
	assert.Equal(t, 1, first.Occurrences)
	assert.True(t, npeTrace().Equal(first.Tree))
	assert.Equal(t, "java.lang.NullPointerException", first.RootCauseName())

	second, created, err := SaveTrace(db, npeTrace(), "", 0)
	require.NoError(t, err)
	require.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Occurrences)
	assert.Equal(t, "app.log", second.Source)

	n, err := CountTraces(db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveTrace_RejectsNil(t *testing.T) {
	db := openTestDB(t)
	_, _, err := SaveTrace(db, nil, "x", 0)
	require.Error(t, err)
}

func TestGetTrace_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := GetTrace(db, "trc_missing")
	require.ErrorIs(t, err, ErrTraceNotFound)

	var nf *TraceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "trc_missing", nf.ID)
}

func TestListTraces_SearchAndLimit(t *testing.T) {
	db := openTestDB(t)

	_, _, err := SaveTrace(db, npeTrace(), "a.log", 0)
	require.NoError(t, err)
	_, _, err = SaveTrace(db, &throwable.Node{Name: "java.io.IOException", Message: "disk 100% full"}, "b.log", 1)
	require.NoError(t, err)
	_, _, err = SaveTrace(db, &throwable.Node{Name: "java.lang.Error", Message: "x_y"}, "c.log", 0)
	require.NoError(t, err)

	all, err := ListTraces(db, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byFrame, err := ListTraces(db, ListOptions{Search: "com.acme.Repo.load"})
	require.NoError(t, err)
	require.Len(t, byFrame, 1)
	assert.Equal(t, "java.lang.IllegalStateException", byFrame[0].Name)

	literalPercent, err := ListTraces(db, ListOptions{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, literalPercent, 1)
	assert.Equal(t, "java.io.IOException", literalPercent[0].Name)

	literalUnderscore, err := ListTraces(db, ListOptions{Search: "x_y"})
	require.NoError(t, err)
	require.Len(t, literalUnderscore, 1)

	limited, err := ListTraces(db, ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := ListTraces(db, ListOptions{Search: "nothing matches this"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestDeleteTrace(t *testing.T) {
	db := openTestDB(t)

	saved, _, err := SaveTrace(db, npeTrace(), "", 0)
	require.NoError(t, err)

	require.NoError(t, DeleteTrace(db, saved.ID))
	require.ErrorIs(t, DeleteTrace(db, saved.ID), ErrTraceNotFound)

	_, err = GetTrace(db, saved.ID)
	require.ErrorIs(t, err, ErrTraceNotFound)
}
