package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/foodagent"
	"github.com/creastat/foodagent/extract"
	"github.com/creastat/foodagent/fields"
	"github.com/creastat/foodagent/inventory"
	"github.com/creastat/foodagent/session"
)

// fakeExtractor echoes the latest user message for assignments, so a test
// user typing "name=apple" produces that assignment.
type fakeExtractor struct {
	mu    sync.Mutex
	calls map[extract.Mode]int

	assignErr error
	question  func(req extract.Request) (string, error)
	confirm   func() (string, error)
	normalize func(req extract.Request) (string, error)
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{calls: make(map[extract.Mode]int)}
}

func (f *fakeExtractor) Extract(ctx context.Context, req extract.Request) (string, error) {
	f.mu.Lock()
	f.calls[req.Mode]++
	f.mu.Unlock()

	switch req.Mode {
	case extract.ModeAssign:
		if f.assignErr != nil {
			return "", f.assignErr
		}
		if len(req.Dialogue) == 0 {
			return "", nil
		}
		return req.Dialogue[len(req.Dialogue)-1].Content, nil
	case extract.ModeQuestion:
		if f.question != nil {
			return f.question(req)
		}
		return "Tell me about your food.", nil
	case extract.ModeConfirm:
		if f.confirm != nil {
			return f.confirm()
		}
		return "YES", nil
	case extract.ModeNormalize:
		if f.normalize != nil {
			return f.normalize(req)
		}
		return "unknown", nil
	}
	return "", fmt.Errorf("unexpected mode %s", req.Mode)
}

func (f *fakeExtractor) count(m extract.Mode) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[m]
}

type fakeCommitter struct {
	mu    sync.Mutex
	items []inventory.Item
	fail  int // number of commits to fail before succeeding
}

func (c *fakeCommitter) Commit(ctx context.Context, item inventory.Item) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail > 0 {
		c.fail--
		return "", errors.New("connection refused")
	}
	c.items = append(c.items, item)
	return "Added " + item.Name + ".", nil
}

func (c *fakeCommitter) committed() []inventory.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]inventory.Item(nil), c.items...)
}

func newTestEngine(t *testing.T, ex *fakeExtractor, c *fakeCommitter, opts ...Option) *Engine {
	t.Helper()
	store, err := session.NewStore(session.StoreTypeMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e, err := New(store, ex, c, opts...)
	require.NoError(t, err)
	return e
}

func say(t *testing.T, e *Engine, id, text string) Reply {
	t.Helper()
	r, err := e.Step(context.Background(), Say(id, text))
	require.NoError(t, err)
	return r
}

func peek(t *testing.T, e *Engine, id string) *session.State {
	t.Helper()
	st, err := e.Peek(context.Background(), id)
	require.NoError(t, err)
	return st
}

var appleAnswers = []string{
	"name=apple",
	"food_type=fruit",
	"quantity=50g",
	"stock_date=today",
	"expiry_date=none",
	"storage_type=cold",
}

// toFunnel sends malformed answers until the session switches to fallback.
func toFunnel(t *testing.T, e *Engine, id string) Reply {
	t.Helper()
	var r Reply
	for i := 0; i < DefaultMaxAttempts; i++ {
		r = say(t, e, id, "I really don't know")
	}
	require.Equal(t, session.ModeFallback, r.Mode)
	return r
}

func TestEngine_EndToEnd(t *testing.T) {
	ex := newFakeExtractor()
	c := &fakeCommitter{}
	e := newTestEngine(t, ex, c)
	ctx := context.Background()

	r, err := e.Step(ctx, Turn{SessionID: "s1", Caller: map[string]string{"token": "abc"}})
	require.NoError(t, err)
	assert.Equal(t, "Tell me about your food.", r.Text)
	assert.Equal(t, session.PhaseCollecting, r.Phase)

	for i, answer := range appleAnswers {
		r = say(t, e, "s1", answer)
		if i < len(appleAnswers)-1 {
			assert.False(t, r.Complete, "answer %d", i)
		}
	}

	assert.True(t, r.Complete)
	assert.Equal(t, session.PhaseCompleted, r.Phase)
	assert.Contains(t, r.Text, "All fields successfully collected.")
	assert.Equal(t, 1, ex.count(extract.ModeConfirm))

	items := c.committed()
	require.Len(t, items, 1)
	assert.Equal(t, inventory.Item{
		Name:        "apple",
		FoodType:    "fruit",
		StorageType: "cold",
		Quantity:    "50g",
		StockDate:   "today",
		ExpiryDate:  "none",
		Caller:      map[string]string{"token": "abc"},
	}, items[0])

	assert.Nil(t, peek(t, e, "s1"), "completed sessions are removed")
}

func TestEngine_OpeningPromptIsIdempotent(t *testing.T) {
	ex := newFakeExtractor()
	n := 0
	ex.question = func(extract.Request) (string, error) {
		n++
		return fmt.Sprintf("question %d", n), nil
	}
	e := newTestEngine(t, ex, &fakeCommitter{})
	ctx := context.Background()

	first, err := e.Step(ctx, Ask("s1"))
	require.NoError(t, err)
	before := peek(t, e, "s1")

	second, err := e.Step(ctx, Ask("s1"))
	require.NoError(t, err)
	after := peek(t, e, "s1")

	assert.Equal(t, "question 1", first.Text)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, ex.count(extract.ModeQuestion))
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, 0, after.AttemptCount)
}

func TestEngine_OpeningFallsBackToStaticPrompt(t *testing.T) {
	ex := newFakeExtractor()
	ex.question = func(extract.Request) (string, error) { return "", errors.New("quota") }
	e := newTestEngine(t, ex, &fakeCommitter{})

	r, err := e.Step(context.Background(), Ask("s1"))
	require.NoError(t, err)
	assert.Equal(t, msgOpening, r.Text)

	// later questions fall back to the first missing field in funnel order
	r = say(t, e, "s1", "name=apple")
	assert.Equal(t, fields.MustLookup(fields.FoodType).Prompt, r.Text)
}

func TestEngine_OverwritesFilledField(t *testing.T) {
	e := newTestEngine(t, newFakeExtractor(), &fakeCommitter{})

	say(t, e, "s1", "name=apple")
	say(t, e, "s1", "name=Pear")

	st := peek(t, e, "s1")
	assert.Equal(t, "pear", st.Fields[fields.Name])
	assert.Equal(t, 2, st.AttemptCount)
}

func TestEngine_NoticesForBadExtractions(t *testing.T) {
	e := newTestEngine(t, newFakeExtractor(), &fakeCommitter{})

	r := say(t, e, "s1", "hmm")
	assert.True(t, strings.HasPrefix(r.Text, msgMalformed))

	r = say(t, e, "s1", "colour=red")
	assert.True(t, strings.HasPrefix(r.Text, "Unrecognized field: colour"))

	st := peek(t, e, "s1")
	assert.Empty(t, st.Fields)
	assert.Equal(t, 2, st.AttemptCount)
}

func TestEngine_FallbackOnSeventhRound(t *testing.T) {
	ex := newFakeExtractor()
	e := newTestEngine(t, ex, &fakeCommitter{})

	for i := 1; i < DefaultMaxAttempts; i++ {
		r := say(t, e, "s1", "no idea")
		assert.Equal(t, session.ModeFreeText, r.Mode, "round %d", i)
	}
	assert.Equal(t, DefaultMaxAttempts-1, peek(t, e, "s1").AttemptCount)

	questions := ex.count(extract.ModeQuestion)
	r := say(t, e, "s1", "no idea")
	assert.Equal(t, session.ModeFallback, r.Mode)
	assert.Equal(t, msgHandoff+"What food do you want to add?", r.Text)
	assert.Equal(t, questions, ex.count(extract.ModeQuestion), "funnel prompts are fixed")

	st := peek(t, e, "s1")
	assert.Equal(t, DefaultMaxAttempts, st.AttemptCount)
	assert.Equal(t, 0, st.FunnelStep)
}

func TestEngine_ExtractedOnlyPolicySkipsMalformedRounds(t *testing.T) {
	e := newTestEngine(t, newFakeExtractor(), &fakeCommitter{}, WithAttemptPolicy(AttemptsExtractedOnly))

	for i := 0; i < DefaultMaxAttempts+2; i++ {
		r := say(t, e, "s1", "no idea")
		assert.Equal(t, session.ModeFreeText, r.Mode)
	}
	say(t, e, "s1", "name=apple")
	assert.Equal(t, 1, peek(t, e, "s1").AttemptCount)
}

func TestEngine_ExtractorFailureLeavesStateUntouched(t *testing.T) {
	ex := newFakeExtractor()
	e := newTestEngine(t, ex, &fakeCommitter{})

	say(t, e, "s1", "name=apple")
	ex.assignErr = errors.New("503")

	r := say(t, e, "s1", "food_type=fruit")
	assert.Equal(t, msgRetry, r.Text)

	st := peek(t, e, "s1")
	assert.Equal(t, map[fields.Key]string{fields.Name: "apple"}, st.Fields)
	assert.Equal(t, 1, st.AttemptCount)
	assert.Equal(t, session.ModeFreeText, st.Mode)
}

func TestEngine_ConfirmationDeclined(t *testing.T) {
	ex := newFakeExtractor()
	ex.confirm = func() (string, error) { return "NO", nil }
	c := &fakeCommitter{}
	e := newTestEngine(t, ex, c)

	var r Reply
	for _, a := range appleAnswers {
		r = say(t, e, "s1", a)
	}
	assert.False(t, r.Complete)
	assert.Equal(t, session.PhaseCollecting, r.Phase)
	assert.True(t, strings.HasPrefix(r.Text, msgNotConfirmed))
	assert.Empty(t, c.committed())
	assert.Equal(t, len(appleAnswers), peek(t, e, "s1").AttemptCount)
}

func TestEngine_InvalidFieldsBlockConfirmation(t *testing.T) {
	ex := newFakeExtractor()
	e := newTestEngine(t, ex, &fakeCommitter{})

	answers := append([]string(nil), appleAnswers...)
	answers[2] = "quantity=a handful"
	var r Reply
	for _, a := range answers {
		r = say(t, e, "s1", a)
	}
	assert.Contains(t, r.Text, "Quantity")
	assert.Equal(t, session.PhaseCollecting, r.Phase)
	assert.Equal(t, 0, ex.count(extract.ModeConfirm))

	r = say(t, e, "s1", "quantity=2 kilos")
	assert.True(t, r.Complete)
}

func TestEngine_CommitFailureIsRetried(t *testing.T) {
	c := &fakeCommitter{fail: 1}
	e := newTestEngine(t, newFakeExtractor(), c)

	var r Reply
	for _, a := range appleAnswers {
		r = say(t, e, "s1", a)
	}
	require.Error(t, r.Err)
	assert.ErrorIs(t, r.Err, foodagent.ErrStorage)
	var se *inventory.StorageError
	assert.ErrorAs(t, r.Err, &se)
	assert.False(t, r.Complete)
	assert.Equal(t, session.PhaseConfirming, r.Phase)
	assert.Contains(t, r.Text, "apple")

	st := peek(t, e, "s1")
	require.NotNil(t, st)
	assert.Equal(t, len(appleAnswers)-1, st.AttemptCount)

	r = say(t, e, "s1", "please try again")
	assert.NoError(t, r.Err)
	assert.True(t, r.Complete)
	assert.Len(t, c.committed(), 1)
}

func TestEngine_ConfirmCallFailure(t *testing.T) {
	ex := newFakeExtractor()
	ex.confirm = func() (string, error) { return "", errors.New("timeout") }
	e := newTestEngine(t, ex, &fakeCommitter{})

	var r Reply
	for _, a := range appleAnswers {
		r = say(t, e, "s1", a)
	}
	assert.Equal(t, msgRetry, r.Text)
	assert.Equal(t, session.PhaseConfirming, r.Phase)
	assert.Equal(t, len(appleAnswers)-1, peek(t, e, "s1").AttemptCount)
}

func TestEngine_FunnelQuantityNormalisation(t *testing.T) {
	tests := []struct {
		answer string
		want   string
		ok     bool
	}{
		{"5 kilograms", "5000g", true},
		{"50 grams", "50g", true},
		{"4 litres", "4l", true},
		{"some apples", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			e := newTestEngine(t, newFakeExtractor(), &fakeCommitter{})
			toFunnel(t, e, "s1")
			say(t, e, "s1", "apple")
			say(t, e, "s1", "fruits")

			r := say(t, e, "s1", tt.answer)
			st := peek(t, e, "s1")
			if tt.ok {
				assert.Equal(t, tt.want, st.Fields[fields.Quantity])
				assert.Equal(t, 3, st.FunnelStep)
				assert.Equal(t, fields.MustLookup(fields.StockDate).Prompt, r.Text)
				return
			}
			_, set := st.Value(fields.Quantity)
			assert.False(t, set)
			assert.Equal(t, 2, st.FunnelStep)
			assert.Equal(t, "That doesn't look like a valid quantity. Let's try again.\n"+
				fields.MustLookup(fields.Quantity).Prompt, r.Text)
		})
	}
}

func TestEngine_FunnelUsesNormaliser(t *testing.T) {
	ex := newFakeExtractor()
	ex.normalize = func(req extract.Request) (string, error) {
		if req.Field == fields.Quantity {
			return "250g", nil
		}
		return "unknown", nil
	}
	e := newTestEngine(t, ex, &fakeCommitter{})
	toFunnel(t, e, "s1")
	say(t, e, "s1", "apple")
	say(t, e, "s1", "fruit")
	say(t, e, "s1", "a quarter kilo")

	assert.Equal(t, "250g", peek(t, e, "s1").Fields[fields.Quantity])
	assert.Equal(t, 1, ex.count(extract.ModeNormalize))
}

func TestEngine_FunnelCompletes(t *testing.T) {
	c := &fakeCommitter{}
	e := newTestEngine(t, newFakeExtractor(), c)
	toFunnel(t, e, "s1")

	var r Reply
	for _, a := range []string{"Apple", "fruit", "50g", "yesterday", "no expiry", "fridge"} {
		r = say(t, e, "s1", a)
	}
	require.True(t, r.Complete)

	items := c.committed()
	require.Len(t, items, 1)
	assert.Equal(t, "apple", items[0].Name)
	assert.Equal(t, "yesterday", items[0].StockDate)
	assert.Equal(t, "none", items[0].ExpiryDate)
	assert.Equal(t, "cold", items[0].StorageType)
}

func TestEngine_FunnelCommitRetry(t *testing.T) {
	c := &fakeCommitter{fail: 1}
	e := newTestEngine(t, newFakeExtractor(), c)
	toFunnel(t, e, "s1")

	var r Reply
	for _, a := range []string{"apple", "fruit", "50g", "today", "none", "cold"} {
		r = say(t, e, "s1", a)
	}
	assert.ErrorIs(t, r.Err, foodagent.ErrStorage)
	assert.Equal(t, len(fields.FallbackOrder()), peek(t, e, "s1").FunnelStep)

	r = say(t, e, "s1", "ok")
	assert.True(t, r.Complete)
	assert.Len(t, c.committed(), 1)
}

func TestEngine_FunnelNameChecker(t *testing.T) {
	check := fields.NameCheckerFunc(func(ctx context.Context, name string) (bool, error) {
		switch name {
		case "rock":
			return false, nil
		case "mystery":
			return false, errors.New("catalog down")
		}
		return true, nil
	})
	e := newTestEngine(t, newFakeExtractor(), &fakeCommitter{}, WithNameChecker(check))
	toFunnel(t, e, "s1")
	prompt := fields.MustLookup(fields.Name).Prompt

	r := say(t, e, "s1", "rock")
	assert.Equal(t, msgInvalidFood+prompt, r.Text)

	r = say(t, e, "s1", "mystery")
	assert.Equal(t, msgCheckUnavailable+prompt, r.Text)

	r = say(t, e, "s1", "bread")
	assert.Equal(t, fields.MustLookup(fields.FoodType).Prompt, r.Text)
	assert.Equal(t, "bread", peek(t, e, "s1").Fields[fields.Name])
}

func TestEngine_Cancel(t *testing.T) {
	e := newTestEngine(t, newFakeExtractor(), &fakeCommitter{})
	ctx := context.Background()

	say(t, e, "s1", "name=apple")
	require.NotNil(t, peek(t, e, "s1"))

	require.NoError(t, e.Cancel(ctx, "s1"))
	assert.Nil(t, peek(t, e, "s1"))
	require.NoError(t, e.Cancel(ctx, "unknown"))

	r := say(t, e, "s1", "food_type=fruit")
	assert.False(t, r.Complete)
	_, ok := peek(t, e, "s1").Value(fields.Name)
	assert.False(t, ok, "cancel starts over")
}

func TestEngine_EmptySessionID(t *testing.T) {
	e := newTestEngine(t, newFakeExtractor(), &fakeCommitter{})

	_, err := e.Step(context.Background(), Say("", "hi"))
	assert.ErrorIs(t, err, ErrEmptySessionID)
	assert.ErrorIs(t, e.Cancel(context.Background(), ""), ErrEmptySessionID)
}

func TestEngine_ParallelSessions(t *testing.T) {
	c := &fakeCommitter{}
	e := newTestEngine(t, newFakeExtractor(), c)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			for _, a := range appleAnswers {
				_, err := e.Step(context.Background(), Say(id, a))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.committed(), n)
}

func TestEngine_DialogueIsLogged(t *testing.T) {
	e := newTestEngine(t, newFakeExtractor(), &fakeCommitter{}, WithHistoryLimits(4, 0))

	_, err := e.Step(context.Background(), Ask("s1"))
	require.NoError(t, err)
	r := say(t, e, "s1", "name=apple")

	st := peek(t, e, "s1")
	require.Len(t, st.Log, 3)
	assert.Equal(t, foodagent.RoleAssistant, st.Log[0].Role)
	assert.Equal(t, foodagent.Message{Role: foodagent.RoleUser, Content: "name=apple"}, stripMeta(st.Log[1]))
	assert.Equal(t, r.Text, st.Log[2].Content)
	assert.Equal(t, r.Text, st.LastPrompt)
}

func stripMeta(m foodagent.Message) foodagent.Message {
	return foodagent.Message{Role: m.Role, Content: m.Content}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, newFakeExtractor(), &fakeCommitter{})
	assert.Error(t, err)
}
