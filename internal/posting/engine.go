// Package posting turns financial events into balanced ledger entries.
package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/ledger"
)

// Ledger is the storage the engine posts into. InsertEntries must write
// all entries or none.
type Ledger interface {
	AccountLister
	GetAccount(ctx context.Context, code string) (*ledger.Account, error)
	InsertEntries(ctx context.Context, entries []ledger.Entry) error
	EntriesByCorrelation(ctx context.Context, correlationID string) ([]ledger.Entry, error)
	IsReversed(ctx context.Context, correlationID string) (bool, error)
}

// Event is one financial event to post.
type Event struct {
	Date               time.Time
	AccountCode        string
	Amount             decimal.Decimal
	Direction          ledger.Direction
	Description        string
	ProjectID          string
	Notes              string
	CounterAccountCode string
	CreateCounterEntry bool
	// ConfirmUnusual posts even when the account pairing matches a rule.
	ConfirmUnusual bool
	SourceRef      string
}

type Engine struct {
	policy *CounterPolicy
	rules  Rules
	newID  func() string
}

type Option func(*Engine)

func WithPolicy(p *CounterPolicy) Option { return func(e *Engine) { e.policy = p } }

func WithRules(r Rules) Option { return func(e *Engine) { e.rules = r } }

// WithIDFunc overrides correlation id generation.
func WithIDFunc(f func() string) Option { return func(e *Engine) { e.newID = f } }

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy: DefaultCounterPolicy(),
		rules:  DefaultRules,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (ev *Event) validate() error {
	if strings.TrimSpace(ev.AccountCode) == "" {
		return ledger.ErrInvalidAccountCode
	}
	if !ev.Amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ledger.ErrInvalidAmount, ev.Amount)
	}
	if !ledger.ValidDirection(ev.Direction) {
		return fmt.Errorf("%w: %q", ledger.ErrInvalidDirection, ev.Direction)
	}
	if ev.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ledger.ErrInvalidDate)
	}
	if strings.TrimSpace(ev.Description) == "" {
		return ledger.ErrEmptyDescription
	}
	return nil
}

func getAccount(ctx context.Context, l Ledger, code string) (*ledger.Account, error) {
	acct, err := l.GetAccount(ctx, code)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, code)
		}
		return nil, fmt.Errorf("get account %s: %w", code, err)
	}
	return acct, nil
}

// Post validates ev and writes its entries to l. With CreateCounterEntry
// the posting is a balanced pair sharing one correlation id; the counter
// account is ev.CounterAccountCode or, when empty, inferred by the
// engine's CounterPolicy.
func (e *Engine) Post(ctx context.Context, l Ledger, ev Event) (*ledger.Posting, error) {
	if err := ev.validate(); err != nil {
		return nil, err
	}
	primary, err := getAccount(ctx, l, ev.AccountCode)
	if err != nil {
		return nil, err
	}

	p := &ledger.Posting{CorrelationID: e.newID()}
	date := ledger.Day(ev.Date)
	first := ledger.Entry{
		CorrelationID: p.CorrelationID,
		Date:          date,
		AccountCode:   primary.Code,
		Direction:     ev.Direction,
		Side:          ledger.SideFor(primary.Type, ev.Direction),
		Amount:        ev.Amount,
		Description:   ev.Description,
		ProjectID:     ev.ProjectID,
		Notes:         ev.Notes,
		SourceRef:     ev.SourceRef,
	}

	if !ev.CreateCounterEntry {
		p.Entries = []ledger.Entry{first}
		if err := l.InsertEntries(ctx, p.Entries); err != nil {
			return nil, fmt.Errorf("insert entries: %w", err)
		}
		slog.DebugContext(ctx, "posted single entry",
			"correlation_id", p.CorrelationID, "account", primary.Code, "amount", ev.Amount.String())
		return p, nil
	}

	var counter *ledger.Account
	if code := strings.TrimSpace(ev.CounterAccountCode); code != "" {
		if code == primary.Code {
			return nil, fmt.Errorf("%w: %s", ledger.ErrSameAccount, code)
		}
		if counter, err = getAccount(ctx, l, code); err != nil {
			return nil, err
		}
	} else if counter, err = e.policy.Resolve(ctx, l, primary, ev.Direction); err != nil {
		return nil, err
	}

	if !ev.ConfirmUnusual {
		if err := e.rules.Check(primary, counter, ev.Direction); err != nil {
			return nil, err
		}
	}

	counterSide := first.Side.Opposite()
	second := first
	second.AccountCode = counter.Code
	second.Side = counterSide
	second.Direction = ledger.DirectionFor(counter.Type, counterSide)
	second.IsCounterEntry = true
	second.CounterAccountCode = primary.Code
	first.CounterAccountCode = counter.Code

	p.Entries = []ledger.Entry{first, second}
	if err := l.InsertEntries(ctx, p.Entries); err != nil {
		return nil, fmt.Errorf("insert entries: %w", err)
	}
	slog.DebugContext(ctx, "posted entry pair",
		"correlation_id", p.CorrelationID,
		"primary", primary.Code,
		"counter", counter.Code,
		"direction", ev.Direction,
		"amount", ev.Amount.String())
	return p, nil
}

// Reverse posts the mirror image of every entry in a posting. The
// original entries stay untouched; a posting can be reversed once.
func (e *Engine) Reverse(ctx context.Context, l Ledger, correlationID string, date time.Time, description string) (*ledger.Posting, error) {
	originals, err := l.EntriesByCorrelation(ctx, correlationID)
	if err != nil {
		return nil, fmt.Errorf("load posting %s: %w", correlationID, err)
	}
	if len(originals) == 0 {
		return nil, fmt.Errorf("%w: %s", ledger.ErrPostingNotFound, correlationID)
	}
	if originals[0].ReversesCorrelationID != "" {
		return nil, fmt.Errorf("%w: %s is itself a reversal", ledger.ErrAlreadyReversed, correlationID)
	}
	reversed, err := l.IsReversed(ctx, correlationID)
	if err != nil {
		return nil, fmt.Errorf("check reversal %s: %w", correlationID, err)
	}
	if reversed {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAlreadyReversed, correlationID)
	}

	p := &ledger.Posting{CorrelationID: e.newID()}
	for _, orig := range originals {
		r := orig
		r.ID = 0
		r.CreatedAt = time.Time{}
		r.CorrelationID = p.CorrelationID
		r.Direction = orig.Direction.Opposite()
		r.Side = orig.Side.Opposite()
		r.ReversesCorrelationID = correlationID
		if !date.IsZero() {
			r.Date = ledger.Day(date)
		}
		if description != "" {
			r.Description = description
		} else {
			r.Description = "Reversal: " + orig.Description
		}
		p.Entries = append(p.Entries, r)
	}
	if err := l.InsertEntries(ctx, p.Entries); err != nil {
		return nil, fmt.Errorf("insert reversal: %w", err)
	}
	slog.InfoContext(ctx, "reversed posting",
		"correlation_id", correlationID, "reversal_id", p.CorrelationID, "entries", len(p.Entries))
	return p, nil
}
