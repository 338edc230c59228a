package taskcache_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

func Test_Read_Validates_Query_Before_Polling(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		query taskcache.Query
		want  error
	}{
		{name: "UnknownField", query: taskcache.Query{Fields: "note,wibble"}, want: taskcache.ErrUnsupportedField},
		{name: "FieldNotCached", query: taskcache.Query{Fields: "star"}, want: taskcache.ErrFieldNotCached},
		{name: "OppositeCompletion", query: taskcache.Query{Completion: taskcache.CompletionComplete}, want: taskcache.ErrConfigConflict},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			remote := &faultyRemote{Remote: e.srv}

			c, err := taskcache.Open(t.Context(), remote, taskcache.Options{Completion: taskcache.CompletionIncomplete, Fields: "note"})
			require.NoError(t, err)

			_, err = c.Read(t.Context(), testCase.query)
			require.ErrorIs(t, err, testCase.want)
			assert.Zero(t, remote.calls, "no remote call for an invalid query")
		})
	}
}

func Test_Read_Accepts_Matching_Or_Any_Completion_When_Store_Specific(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.add(t, taskcache.Task{})

	c := e.open(t, taskcache.CompletionIncomplete, "")

	for _, completion := range []taskcache.Completion{taskcache.CompletionAny, taskcache.CompletionIncomplete} {
		got, err := c.Read(t.Context(), taskcache.Query{Completion: completion})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
}

func Test_Read_Filters_By_Completion_When_Store_Holds_Any(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	open := e.add(t, taskcache.Task{})
	done := e.add(t, taskcache.Task{Completed: taskcache.Ptr(start)})

	c := e.open(t, taskcache.CompletionAny, "")

	got, err := c.Read(t.Context(), taskcache.Query{Completion: taskcache.CompletionIncomplete})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)

	got, err = c.Read(t.Context(), taskcache.Query{Completion: taskcache.CompletionComplete})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, done.ID, got[0].ID)
}

func Test_Read_Applies_Exclusive_Time_Bounds_And_Sorts_By_ID(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	var ids []int64

	for range 4 {
		ids = append(ids, e.add(t, taskcache.Task{}).ID)
		e.clock.Advance(time.Minute)
	}

	c := e.open(t, taskcache.CompletionAny, "")

	got, err := c.Read(t.Context(), taskcache.Query{After: start, Before: start.Add(3 * time.Minute)})
	require.NoError(t, err)

	gotIDs := make([]int64, len(got))
	for i, task := range got {
		gotIDs[i] = task.ID
	}

	assert.Equal(t, []int64{ids[1], ids[2]}, gotIDs)

	got, err = c.Read(t.Context(), taskcache.Query{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].ID, got[i].ID)
	}
}

func Test_Read_Returns_At_Most_One_Task_When_ID_Given(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.add(t, taskcache.Task{})
	e.add(t, taskcache.Task{})

	c := e.open(t, taskcache.CompletionAny, "")

	got, err := c.Read(t.Context(), taskcache.Query{ID: a.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = c.Read(t.Context(), taskcache.Query{ID: a.ID, Before: start})
	require.NoError(t, err)
	assert.Empty(t, got, "other predicates still apply")

	got, err = c.Read(t.Context(), taskcache.Query{ID: 12345})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func Test_Read_Strips_Unrequested_Fields_But_Keeps_Them_Cached(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.add(t, taskcache.Task{Note: taskcache.Ptr("n"), Tags: &[]string{"x"}, Priority: taskcache.Ptr(taskcache.PriorityTop)})

	c := e.open(t, taskcache.CompletionAny, allFieldNames)

	got, err := c.Read(t.Context(), taskcache.Query{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Present(), "empty field list exposes no optional attributes")
	assert.Equal(t, *a.Title, *got[0].Title)

	got, err = c.Read(t.Context(), taskcache.Query{Fields: "note"})
	require.NoError(t, err)
	assert.Equal(t, taskcache.FieldsOf(taskcache.FieldNote), got[0].Present())

	cached, ok := c.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, taskcache.FieldsOf(taskcache.FieldNote, taskcache.FieldTag, taskcache.FieldPriority), cached.Present())
}

func Test_Write_Round_Trip_With_Recurrence_Matches_Filter_Table(t *testing.T) {
	t.Parallel()

	// The completed copy the server leaves behind is fetched like any other
	// change, so a complete-only cache keeps it.
	testCases := []struct {
		completion taskcache.Completion
		grow       int
	}{
		{completion: taskcache.CompletionAny, grow: 2},
		{completion: taskcache.CompletionIncomplete, grow: 1},
		{completion: taskcache.CompletionComplete, grow: 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.completion.String(), func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			e.add(t, taskcache.Task{})
			e.add(t, taskcache.Task{Completed: taskcache.Ptr(start)})

			c := e.open(t, testCase.completion, allFieldNames)
			ctx := t.Context()

			acct, err := e.srv.Account(ctx)
			require.NoError(t, err)

			before := c.Len()
			title := uuid.NewString()

			e.clock.Advance(time.Minute)

			added, err := c.Add(ctx, []taskcache.Task{{Title: &title, Repeat: taskcache.Ptr("DAILY")}})
			require.NoError(t, err)
			require.Len(t, added, 1)

			e.clock.Advance(time.Minute)

			today := e.clock.Now().UTC().Truncate(24 * time.Hour)
			edited, err := c.Edit(ctx, []taskcache.Task{{ID: added[0].ID, Completed: &today, Reschedule: true}})
			require.NoError(t, err)
			require.Len(t, edited, 1)

			assert.False(t, edited[0].IsComplete(), "server reopens the rescheduled task")
			assert.Equal(t, added[0].ID, edited[0].ID)
			assert.Equal(t, title, *edited[0].Title)
			assert.Equal(t, before+testCase.grow, c.Len())
			requireInvariants(t, c)

			created, err := e.srv.FetchModifiedAfter(ctx, acct.LastEdit, 0, taskcache.CompletionAny)
			require.NoError(t, err)

			var mine []taskcache.Task

			for _, task := range created {
				if *task.Title == title {
					mine = append(mine, task)
				}
			}

			require.Len(t, mine, 2)
			require.NoError(t, c.Delete(ctx, mine))

			assert.Equal(t, before, c.Len())
		})
	}
}

func Test_Write_Keeps_Task_In_Cache_Only_While_Filter_Admits_It(t *testing.T) {
	t.Parallel()

	for _, completion := range []taskcache.Completion{taskcache.CompletionAny, taskcache.CompletionIncomplete, taskcache.CompletionComplete} {
		t.Run(completion.String(), func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			c := e.open(t, completion, "")
			ctx := t.Context()

			added, err := c.Add(ctx, []taskcache.Task{{Title: taskcache.Ptr(uuid.NewString())}})
			require.NoError(t, err)

			_, cached := c.Get(added[0].ID)
			assert.Equal(t, completion != taskcache.CompletionComplete, cached)

			e.clock.Advance(time.Minute)

			_, err = c.Edit(ctx, []taskcache.Task{{ID: added[0].ID, Completed: taskcache.Ptr(start)}})
			require.NoError(t, err)

			_, cached = c.Get(added[0].ID)
			assert.Equal(t, completion != taskcache.CompletionIncomplete, cached)
		})
	}
}

func Test_Edit_Preserves_Untouched_Cached_Fields(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	c := e.open(t, taskcache.CompletionAny, "meta,note")
	ctx := t.Context()

	added, err := c.Add(ctx, []taskcache.Task{{Title: taskcache.Ptr(uuid.NewString()), Meta: taskcache.Ptr("foo")}})
	require.NoError(t, err)

	_, err = c.Edit(ctx, []taskcache.Task{{ID: added[0].ID, Note: taskcache.Ptr("bar")}})
	require.NoError(t, err)

	got, err := c.Read(ctx, taskcache.Query{ID: added[0].ID, Fields: "meta,note"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "foo", *got[0].Meta)
	assert.Equal(t, "bar", *got[0].Note)
}

func Test_Write_Returns_Remote_Error_Without_Polling(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	remote := &faultyRemote{Remote: e.srv}

	c, err := taskcache.Open(t.Context(), remote, taskcache.Options{})
	require.NoError(t, err)

	_, err = c.Add(t.Context(), []taskcache.Task{{}})
	require.Error(t, err)

	_, err = c.Edit(t.Context(), []taskcache.Task{{ID: 404, Note: taskcache.Ptr("x")}})
	require.Error(t, err)

	err = c.Delete(t.Context(), []taskcache.Task{{ID: 404}})
	require.Error(t, err)

	assert.Zero(t, remote.calls)
}

func Test_DeletedAfter_Passes_Through_Remote_Feed(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.add(t, taskcache.Task{})
	c := e.open(t, taskcache.CompletionAny, "")

	require.NoError(t, c.Delete(t.Context(), []taskcache.Task{{ID: a.ID}}))

	notices, err := c.DeletedAfter(t.Context(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []taskcache.Deletion{{ID: a.ID, DeletedAt: start}}, notices)

	notices, err = c.DeletedAfter(t.Context(), start)
	require.NoError(t, err)
	assert.Empty(t, notices)
}
