package resources

import (
	"context"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Billing is the student balance family. Payments recorded by an
// administrator invalidate it.
type Billing struct {
	cache *querycache.Cache

	Summary *querycache.Query[None, apiclient.BillingSummary]
}

func newBilling(d *Deps, c *querycache.Cache) *Billing {
	b := &Billing{cache: c}

	b.Summary = querycache.NewQuery(c, querycache.QueryDef[None, apiclient.BillingSummary]{
		Name: "getBillingSummary",
		Fetch: guard(d, deref(func(ctx context.Context, _ None) (*apiclient.BillingSummary, error) {
			return d.API.BillingSummary(ctx)
		})),
		Provides: provides[None, apiclient.BillingSummary](TagBilling),
	})

	return b
}
