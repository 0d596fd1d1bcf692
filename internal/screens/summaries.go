package screens

import (
	"context"
	"errors"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/number"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Billing is the student balance screen.
type Billing struct {
	env *Env
	sub *querycache.Subscription[resources.None, apiclient.BillingSummary]
}

func NewBilling(ctx context.Context, env *Env) (*Billing, error) {
	sub, err := env.Families.Billing.Summary.Subscribe(ctx, resources.None{}, querycache.Options{}, nil)
	env.report(err)
	return &Billing{env: env, sub: sub}, err
}

func (b *Billing) Summary() querycache.State[apiclient.BillingSummary] { return b.sub.State() }

// Outstanding returns the unpaid items.
func (b *Billing) Outstanding() []apiclient.BillingItem {
	var out []apiclient.BillingItem
	for _, it := range b.sub.State().Data.Items {
		if !it.Paid {
			out = append(out, it)
		}
	}
	return out
}

// Format renders an amount in cents in the summary currency and the screen
// locale.
func (b *Billing) Format(cents int64) string {
	unit, err := currency.ParseISO(b.sub.State().Data.Currency)
	if err != nil {
		unit = currency.AUD
	}
	return b.env.printer().Sprint(currency.Symbol(unit.Amount(float64(cents) / 100)))
}

func (b *Billing) Balance() string { return b.Format(b.sub.State().Data.BalanceCents) }

func (b *Billing) Close() { b.sub.Unsubscribe() }

// Attendance is the student attendance screen.
type Attendance struct {
	env *Env
	sub *querycache.Subscription[resources.None, apiclient.AttendanceSummary]
}

func NewAttendance(ctx context.Context, env *Env) (*Attendance, error) {
	sub, err := env.Families.Attendance.MyAttendance.Subscribe(ctx, resources.None{}, querycache.Options{}, nil)
	env.report(err)
	return &Attendance{env: env, sub: sub}, err
}

func (a *Attendance) Summary() querycache.State[apiclient.AttendanceSummary] { return a.sub.State() }

// Rate renders the attendance rate as a localized percentage.
func (a *Attendance) Rate() string {
	rate := a.sub.State().Data.AttendanceRate
	if math.IsNaN(rate) {
		rate = 0
	}
	return a.env.printer().Sprint(number.Percent(rate, number.MaxFractionDigits(0)))
}

// Refresh refetches the summary on user request.
func (a *Attendance) Refresh(ctx context.Context) error {
	err := a.sub.Refetch(ctx)
	if errors.Is(err, querycache.ErrSkipped) {
		return nil
	}
	a.env.report(err)
	return err
}

func (a *Attendance) Close() { a.sub.Unsubscribe() }
