package batch

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/CivicBridge/CB-Districting/internal/accounts"
	"github.com/CivicBridge/CB-Districting/internal/metrics"
	"github.com/CivicBridge/CB-Districting/internal/resolution"
)

// Processor runs one change batch end to end: diff, concurrent
// per-record resolution, merge, per-record write. Record failures are
// logged and isolated; nothing in a batch aborts its siblings.
type Processor struct {
	Resolver *resolution.Resolver
	Accounts accounts.Store
	Metrics  metrics.Collector

	// Concurrency bounds the number of records resolving at once.
	// Defaults to 4: per-record work is dominated by the geocode call.
	Concurrency int

	// Limiter paces geocode calls across all workers to respect the
	// geocoding service's rate limit. Optional.
	Limiter *rate.Limiter

	// ResolveTimeout bounds one record's resolution, which in practice
	// bounds the geocode call. Defaults to 10s.
	ResolveTimeout time.Duration
}

const (
	defaultConcurrency    = 4
	defaultResolveTimeout = 10 * time.Second
)

// Process handles one change event. The diff is computed synchronously up
// front; only records whose address actually changed get any resolution
// work. Changed records then resolve concurrently with no ordering
// guarantee, and each successful resolution is merged into the record's
// persisted memberships without clobbering fields this engine does not
// own.
func (p *Processor) Process(ctx context.Context, event ChangeEvent) Summary {
	start := time.Now()

	var changed []RecordChange
	var skipped int
	for _, rc := range event.Records {
		if !rc.addressChanged() {
			skipped++
			p.Metrics.RecordRecordSkipped()
			continue
		}
		changed = append(changed, rc)
	}

	log.Printf("[batch] event with %d records: %d changed, %d unchanged",
		len(event.Records), len(changed), skipped)

	if len(changed) == 0 {
		p.Metrics.RecordBatchDuration(time.Since(start))
		return Summary{Skipped: skipped}
	}

	ids := make([]uuid.UUID, 0, len(changed))
	for _, rc := range changed {
		ids = append(ids, rc.AccountID)
	}
	existing, err := p.Accounts.MembershipsForAccounts(ctx, ids)
	if err != nil {
		// Without current memberships there is nothing safe to merge
		// into; the event can be re-submitted once the store recovers.
		log.Printf("[batch] membership prefetch failed, abandoning batch: %v", err)
		for range changed {
			p.Metrics.RecordRecordFailed()
		}
		p.Metrics.RecordBatchDuration(time.Since(start))
		return Summary{Skipped: skipped, Failed: len(changed)}
	}

	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	resolveTimeout := p.ResolveTimeout
	if resolveTimeout <= 0 {
		resolveTimeout = defaultResolveTimeout
	}

	var processed, failed atomic.Int64
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, rc := range changed {
		wg.Add(1)
		sem <- struct{}{}

		go func(rc RecordChange) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := p.processRecord(ctx, rc, existing[rc.AccountID], resolveTimeout); err != nil {
				log.Printf("[batch] record %s failed: %v", rc.AccountID, err)
				p.Metrics.RecordRecordFailed()
				failed.Add(1)
				return
			}
			processed.Add(1)
		}(rc)
	}
	wg.Wait()

	p.Metrics.RecordBatchDuration(time.Since(start))
	return Summary{
		Processed: int(processed.Load()),
		Skipped:   skipped,
		Failed:    int(failed.Load()),
	}
}

func (p *Processor) processRecord(ctx context.Context, rc RecordChange, current []accounts.Membership, timeout time.Duration) error {
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	resolveCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := p.Resolver.Resolve(resolveCtx, *rc.After.Address)
	if err != nil {
		// No partial write: the record keeps its prior memberships until
		// a successful re-resolution.
		return err
	}

	merged := Merge(current, result.Memberships)
	if len(merged) == 0 {
		return nil
	}
	return p.Accounts.SaveMemberships(ctx, rc.AccountID, merged)
}

// Merge folds a fresh resolution into the record's current memberships.
// Only the membership set and district are this engine's to write: an
// existing Role survives, a new jurisdiction gets the baseline role, and
// jurisdictions missing from the new mapping are not returned at all —
// the store leaves their rows untouched. Pruning a membership the
// constituent has moved away from is an administrative decision, not an
// automatic consequence of an address change.
func Merge(current []accounts.Membership, resolved map[string]resolution.Assignment) []accounts.Membership {
	roles := make(map[string]string, len(current))
	for _, m := range current {
		roles[m.JurisdictionID] = m.Role
	}

	merged := make([]accounts.Membership, 0, len(resolved))
	for _, a := range resolved {
		role, ok := roles[a.JurisdictionID]
		if !ok || role == "" {
			role = accounts.DefaultRole
		}
		merged = append(merged, accounts.Membership{
			JurisdictionID: a.JurisdictionID,
			Name:           a.JurisdictionName,
			Role:           role,
			DistrictID:     a.DistrictID,
		})
	}
	return merged
}
