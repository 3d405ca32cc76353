package statemachine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/pkg/statemachine"
)

type docState string

type docEvent string

const (
	draft     docState = "draft"
	inReview  docState = "in_review"
	approved  docState = "approved"
	archived  docState = "archived"
	submit    docEvent = "submit"
	approve   docEvent = "approve"
	archive   docEvent = "archive"
	unarchive docEvent = "unarchive"
)

func TestMachine_Next(t *testing.T) {
	t.Parallel()

	m := statemachine.New(
		statemachine.Rule[docState, docEvent]{From: draft, Event: submit, To: inReview},
		statemachine.Rule[docState, docEvent]{From: inReview, Event: approve, To: approved},
		statemachine.Rule[docState, docEvent]{AnyState: true, Event: archive, To: archived},
	)
	ctx := context.Background()

	t.Run("exact rule", func(t *testing.T) {
		t.Parallel()
		next, err := m.Next(ctx, draft, submit, nil)
		require.NoError(t, err)
		assert.Equal(t, inReview, next)
	})

	t.Run("wildcard rule matches any state", func(t *testing.T) {
		t.Parallel()
		for _, from := range []docState{draft, inReview, approved, archived} {
			next, err := m.Next(ctx, from, archive, nil)
			require.NoError(t, err)
			assert.Equal(t, archived, next)
		}
	})

	t.Run("no rule", func(t *testing.T) {
		t.Parallel()
		_, err := m.Next(ctx, approved, submit, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, statemachine.ErrNoTransition)
		assert.Contains(t, err.Error(), "approved")
		assert.Contains(t, err.Error(), "submit")
	})

	t.Run("unknown event", func(t *testing.T) {
		t.Parallel()
		assert.False(t, m.Can(ctx, archived, unarchive, nil))
	})
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()

	isAdmin := func(_ context.Context, _ docState, _ docEvent, data any) bool {
		role, _ := data.(string)
		return role == "admin"
	}

	m := statemachine.New(
		statemachine.Rule[docState, docEvent]{From: inReview, Event: approve, To: approved, Guards: []statemachine.Guard[docState, docEvent]{isAdmin}},
	)
	ctx := context.Background()

	next, err := m.Next(ctx, inReview, approve, "admin")
	require.NoError(t, err)
	assert.Equal(t, approved, next)

	_, err = m.Next(ctx, inReview, approve, "viewer")
	require.Error(t, err)
	assert.ErrorIs(t, err, statemachine.ErrRejected)
	assert.NotErrorIs(t, err, statemachine.ErrNoTransition)
}

func TestMachine_ExactRulesTakePrecedence(t *testing.T) {
	t.Parallel()

	m := statemachine.New(
		statemachine.Rule[docState, docEvent]{AnyState: true, Event: archive, To: archived},
		statemachine.Rule[docState, docEvent]{From: draft, Event: archive, To: draft},
	)

	next, err := m.Next(context.Background(), draft, archive, nil)
	require.NoError(t, err)
	assert.Equal(t, draft, next, "rule bound to the concrete state wins over the wildcard")

	next, err = m.Next(context.Background(), approved, archive, nil)
	require.NoError(t, err)
	assert.Equal(t, archived, next)
}

func TestMachine_GuardFallthrough(t *testing.T) {
	t.Parallel()

	never := func(context.Context, docState, docEvent, any) bool { return false }
	m := statemachine.New(
		statemachine.Rule[docState, docEvent]{From: draft, Event: submit, To: approved, Guards: []statemachine.Guard[docState, docEvent]{never}},
		statemachine.Rule[docState, docEvent]{From: draft, Event: submit, To: inReview},
	)

	next, err := m.Next(context.Background(), draft, submit, nil)
	require.NoError(t, err)
	assert.Equal(t, inReview, next)
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	t.Run("fluent rules", func(t *testing.T) {
		t.Parallel()

		b := statemachine.NewBuilder[docState, docEvent]()
		_, err := b.From(draft).When(submit).To(inReview).Add()
		require.NoError(t, err)
		_, err = b.FromAny().When(archive).To(archived).Add()
		require.NoError(t, err)

		m := b.Build()
		next, err := m.Next(context.Background(), draft, submit, nil)
		require.NoError(t, err)
		assert.Equal(t, inReview, next)

		next, err = m.Next(context.Background(), inReview, archive, nil)
		require.NoError(t, err)
		assert.Equal(t, archived, next)
	})

	t.Run("incomplete rule", func(t *testing.T) {
		t.Parallel()

		_, err := statemachine.NewBuilder[docState, docEvent]().From(draft).To(inReview).Add()
		assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

		_, err = statemachine.NewBuilder[docState, docEvent]().When(submit).To(inReview).Add()
		assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	})
}

func TestMachine_ConcurrentUse(t *testing.T) {
	t.Parallel()

	m := statemachine.New(
		statemachine.Rule[docState, docEvent]{From: draft, Event: submit, To: inReview},
	)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next, err := m.Next(context.Background(), draft, submit, nil)
			assert.NoError(t, err)
			assert.Equal(t, inReview, next)
		}()
	}
	wg.Wait()
}
