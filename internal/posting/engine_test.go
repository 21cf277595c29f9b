package posting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/projectledger/internal/ledger"
)

// memLedger is an in-memory Ledger over the default chart.
type memLedger struct {
	accounts map[string]ledger.Account
	entries  []ledger.Entry
	failNext bool
}

func newMemLedger(chart ...ledger.ChartEntry) *memLedger {
	if len(chart) == 0 {
		chart = ledger.DefaultChart
	}
	m := &memLedger{accounts: map[string]ledger.Account{}}
	for _, c := range chart {
		m.accounts[c.Code] = c.Account()
	}
	return m
}

func (m *memLedger) GetAccount(_ context.Context, code string) (*ledger.Account, error) {
	a, ok := m.accounts[code]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return &a, nil
}

func (m *memLedger) AccountsByType(_ context.Context, t ledger.AccountType) ([]ledger.Account, error) {
	var out []ledger.Account
	for _, a := range m.accounts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memLedger) InsertEntries(_ context.Context, entries []ledger.Entry) error {
	if m.failNext {
		m.failNext = false
		return errors.New("disk full")
	}
	for i := range entries {
		entries[i].ID = int64(len(m.entries) + 1)
		m.entries = append(m.entries, entries[i])
	}
	return nil
}

func (m *memLedger) EntriesByCorrelation(_ context.Context, id string) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range m.entries {
		if e.CorrelationID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLedger) IsReversed(_ context.Context, id string) (bool, error) {
	for _, e := range m.entries {
		if e.ReversesCorrelationID == id {
			return true, nil
		}
	}
	return false, nil
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("corr-%d", n)
	}
}

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestPostExpenseInfersBank(t *testing.T) {
	ctx := context.Background()
	l := newMemLedger()
	e := NewEngine(WithIDFunc(seqIDs()))

	p, err := e.Post(ctx, l, Event{
		Date:               day,
		AccountCode:        "5110",
		Amount:             decimal.NewFromInt(7_500_000),
		Direction:          ledger.Increase,
		Description:        "Concrete delivery",
		ProjectID:          "p1",
		CreateCounterEntry: true,
	})
	require.NoError(t, err)
	require.Len(t, p.Entries, 2)
	require.Len(t, l.entries, 2)

	primary, counter := p.Entries[0], p.Entries[1]
	assert.Equal(t, "5110", primary.AccountCode)
	assert.Equal(t, "1120", counter.AccountCode, "bank account is the first candidate")
	assert.True(t, primary.Amount.Equal(counter.Amount))
	assert.Equal(t, ledger.Debit, primary.Side)
	assert.Equal(t, ledger.Credit, counter.Side)
	assert.Equal(t, ledger.Increase, primary.Direction)
	assert.Equal(t, ledger.Decrease, counter.Direction)
	assert.Equal(t, primary.Date, counter.Date)
	assert.Equal(t, "corr-1", primary.CorrelationID)
	assert.Equal(t, primary.CorrelationID, counter.CorrelationID)
	assert.Equal(t, "1120", primary.CounterAccountCode)
	assert.Equal(t, "5110", counter.CounterAccountCode)
	assert.False(t, primary.IsCounterEntry)
	assert.True(t, counter.IsCounterEntry)
	assert.True(t, p.Balanced())
}

func TestPostSingleEntry(t *testing.T) {
	l := newMemLedger()
	p, err := NewEngine().Post(context.Background(), l, Event{
		Date:        day,
		AccountCode: "1110",
		Amount:      decimal.NewFromInt(100),
		Direction:   ledger.Increase,
		Description: "Opening float",
	})
	require.NoError(t, err)
	assert.Len(t, p.Entries, 1)
	assert.Len(t, l.entries, 1)
	assert.NotEmpty(t, p.CorrelationID)
}

func TestPostValidation(t *testing.T) {
	base := Event{
		Date:               day,
		AccountCode:        "5110",
		Amount:             decimal.NewFromInt(10),
		Direction:          ledger.Increase,
		Description:        "x",
		CreateCounterEntry: true,
	}
	tests := []struct {
		name   string
		mutate func(*Event)
		want   error
	}{
		{"zero amount", func(e *Event) { e.Amount = decimal.Zero }, ledger.ErrInvalidAmount},
		{"negative amount", func(e *Event) { e.Amount = decimal.NewFromInt(-1) }, ledger.ErrInvalidAmount},
		{"bad direction", func(e *Event) { e.Direction = "sideways" }, ledger.ErrInvalidDirection},
		{"no date", func(e *Event) { e.Date = time.Time{} }, ledger.ErrInvalidDate},
		{"no description", func(e *Event) { e.Description = " " }, ledger.ErrEmptyDescription},
		{"unknown account", func(e *Event) { e.AccountCode = "9999" }, ledger.ErrAccountNotFound},
		{"unknown counter", func(e *Event) { e.CounterAccountCode = "9999" }, ledger.ErrAccountNotFound},
		{"same account", func(e *Event) { e.CounterAccountCode = "5110" }, ledger.ErrSameAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newMemLedger()
			ev := base
			tt.mutate(&ev)
			_, err := NewEngine().Post(context.Background(), l, ev)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, l.entries)
		})
	}
}

func TestPostUnusualCombination(t *testing.T) {
	ctx := context.Background()
	l := newMemLedger()
	ev := Event{
		Date:               day,
		AccountCode:        "4110",
		Amount:             decimal.NewFromInt(500),
		Direction:          ledger.Increase,
		Description:        "Revenue against cost",
		CounterAccountCode: "5110",
		CreateCounterEntry: true,
	}

	_, err := NewEngine().Post(ctx, l, ev)
	var ce *ledger.CombinationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ledger.ErrInvalidCombination)
	assert.Equal(t, "4110", ce.PrimaryCode)
	assert.Equal(t, ledger.TypeExpense, ce.CounterType)
	assert.Empty(t, l.entries)

	ev.ConfirmUnusual = true
	p, err := NewEngine().Post(ctx, l, ev)
	require.NoError(t, err)
	assert.Len(t, p.Entries, 2)
}

func TestPostInsertFailureWritesNothing(t *testing.T) {
	l := newMemLedger()
	l.failNext = true
	_, err := NewEngine().Post(context.Background(), l, Event{
		Date:               day,
		AccountCode:        "5110",
		Amount:             decimal.NewFromInt(1),
		Direction:          ledger.Increase,
		Description:        "x",
		CreateCounterEntry: true,
	})
	require.Error(t, err)
	assert.Empty(t, l.entries)
}

func TestCounterPolicyIsTotal(t *testing.T) {
	ctx := context.Background()
	l := newMemLedger()
	p := DefaultCounterPolicy()
	primaries := map[ledger.AccountType]string{
		ledger.TypeAsset:       "1510",
		ledger.TypeContraAsset: "1590",
		ledger.TypeLiability:   "2110",
		ledger.TypeEquity:      "3110",
		ledger.TypeRevenue:     "4110",
		ledger.TypeExpense:     "5110",
	}
	for _, typ := range ledger.AllAccountTypes {
		for _, dir := range []ledger.Direction{ledger.Increase, ledger.Decrease} {
			primary := l.accounts[primaries[typ]]
			got, err := p.Resolve(ctx, l, &primary, dir)
			require.NoError(t, err, "%s %s", typ, dir)
			assert.NotEqual(t, primary.Code, got.Code)
			assert.Equal(t, OppositeSideType(typ), p.Candidates(typ, dir)[len(p.Candidates(typ, dir))-1].Type)
		}
	}
}

func TestCounterPolicyPrecedence(t *testing.T) {
	ctx := context.Background()
	l := newMemLedger()
	p := DefaultCounterPolicy()

	tests := []struct {
		primary string
		dir     ledger.Direction
		want    string
	}{
		{"4110", ledger.Increase, "1120"},
		{"5110", ledger.Increase, "1120"},
		{"1590", ledger.Increase, "6110"},
		{"1590", ledger.Decrease, "1510"},
		{"1120", ledger.Increase, "1121"},
	}
	for _, tt := range tests {
		primary := l.accounts[tt.primary]
		got, err := p.Resolve(ctx, l, &primary, tt.dir)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Code, "%s %s", tt.primary, tt.dir)
	}
}

func TestCounterPolicyFallback(t *testing.T) {
	// No bank, cash or payable accounts: expense falls back to any asset.
	l := newMemLedger(
		ledger.ChartEntry{Code: "1510", Name: "Equipment", Type: ledger.TypeAsset, Category: ledger.CategoryFixedAsset},
		ledger.ChartEntry{Code: "5110", Name: "Direct costs", Type: ledger.TypeExpense},
	)
	primary := l.accounts["5110"]
	got, err := DefaultCounterPolicy().Resolve(context.Background(), l, &primary, ledger.Increase)
	require.NoError(t, err)
	assert.Equal(t, "1510", got.Code)

	lonely := newMemLedger(ledger.ChartEntry{Code: "5110", Name: "Direct costs", Type: ledger.TypeExpense})
	primary = lonely.accounts["5110"]
	_, err = DefaultCounterPolicy().Resolve(context.Background(), lonely, &primary, ledger.Increase)
	assert.ErrorIs(t, err, ledger.ErrNoCounterAccount)
}

func TestReverse(t *testing.T) {
	ctx := context.Background()
	l := newMemLedger()
	e := NewEngine(WithIDFunc(seqIDs()))

	orig, err := e.Post(ctx, l, Event{
		Date:               day,
		AccountCode:        "1130",
		Amount:             decimal.NewFromInt(30_000_000),
		Direction:          ledger.Increase,
		Description:        "Invoice 7",
		CounterAccountCode: "4110",
		CreateCounterEntry: true,
		SourceRef:          ledger.BillingSource("b7"),
	})
	require.NoError(t, err)

	rev, err := e.Reverse(ctx, l, orig.CorrelationID, day.AddDate(0, 0, 5), "")
	require.NoError(t, err)
	require.Len(t, rev.Entries, 2)
	assert.NotEqual(t, orig.CorrelationID, rev.CorrelationID)
	for i, r := range rev.Entries {
		o := orig.Entries[i]
		assert.Equal(t, o.AccountCode, r.AccountCode)
		assert.Equal(t, o.Side.Opposite(), r.Side)
		assert.Equal(t, o.Direction.Opposite(), r.Direction)
		assert.True(t, o.Amount.Equal(r.Amount))
		assert.Equal(t, orig.CorrelationID, r.ReversesCorrelationID)
		assert.Equal(t, ledger.BillingSource("b7"), r.SourceRef)
		assert.Equal(t, "Reversal: Invoice 7", r.Description)
	}

	net := decimal.Zero
	for _, en := range l.entries {
		net = net.Add(en.Signed())
	}
	assert.True(t, net.IsZero())

	_, err = e.Reverse(ctx, l, orig.CorrelationID, day, "")
	assert.ErrorIs(t, err, ledger.ErrAlreadyReversed)

	_, err = e.Reverse(ctx, l, rev.CorrelationID, day, "")
	assert.ErrorIs(t, err, ledger.ErrAlreadyReversed)

	_, err = e.Reverse(ctx, l, "missing", day, "")
	assert.ErrorIs(t, err, ledger.ErrPostingNotFound)
}

func TestRulesCheck(t *testing.T) {
	acct := func(code string, typ ledger.AccountType) *ledger.Account {
		return &ledger.Account{Code: code, Type: typ}
	}
	tests := []struct {
		primary, counter *ledger.Account
		dir              ledger.Direction
		flagged          bool
	}{
		{acct("4110", ledger.TypeRevenue), acct("1120", ledger.TypeAsset), ledger.Increase, false},
		{acct("4110", ledger.TypeRevenue), acct("6110", ledger.TypeExpense), ledger.Increase, true},
		{acct("5110", ledger.TypeExpense), acct("4110", ledger.TypeRevenue), ledger.Increase, true},
		{acct("6110", ledger.TypeExpense), acct("1590", ledger.TypeContraAsset), ledger.Increase, false},
		{acct("1590", ledger.TypeContraAsset), acct("2110", ledger.TypeLiability), ledger.Increase, true},
		{acct("3110", ledger.TypeEquity), acct("5110", ledger.TypeExpense), ledger.Decrease, true},
		{acct("3110", ledger.TypeEquity), acct("1120", ledger.TypeAsset), ledger.Increase, false},
	}
	for _, tt := range tests {
		err := DefaultRules.Check(tt.primary, tt.counter, tt.dir)
		if tt.flagged {
			assert.ErrorIs(t, err, ledger.ErrInvalidCombination, "%s vs %s", tt.primary.Code, tt.counter.Code)
		} else {
			assert.NoError(t, err, "%s vs %s", tt.primary.Code, tt.counter.Code)
		}
	}
}
