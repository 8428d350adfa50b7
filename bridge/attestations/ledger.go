// Package attestations implements the per-transaction attestation ledger
// and the signature protocols validators use to attest bridge transfers.
package attestations

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/db/iface"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

const seenCacheSize = 8192

// Ledger records which validators attested or fail-voted each transaction,
// one bitmap slot per validator per transaction. A validator gets exactly
// one vote per transaction across both bitmaps.
type Ledger struct {
	ctx     context.Context
	lock    sync.Mutex
	db      iface.Database
	records map[uint64]*types.AttestationRecord
	seen    *lru.Cache
}

// NewLedger returns an attestation ledger backed by the database. Records
// are loaded lazily by nonce, so a restarted node picks up where it left.
func NewLedger(ctx context.Context, db iface.Database) (*Ledger, error) {
	seen, err := lru.New(seenCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not create seen cache")
	}
	return &Ledger{
		ctx:     ctx,
		db:      db,
		records: make(map[uint64]*types.AttestationRecord),
		seen:    seen,
	}, nil
}

// RecordAttestation marks validator as having attested nonce.
func (l *Ledger) RecordAttestation(nonce uint64, validator common.Address) error {
	return l.record(nonce, validator, false)
}

// RecordFailVote marks validator as having voted nonce failed.
func (l *Ledger) RecordFailVote(nonce uint64, validator common.Address) error {
	return l.record(nonce, validator, true)
}

func (l *Ledger) record(nonce uint64, validator common.Address, failVote bool) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	seenKey := commitKey(validator, nonce)
	if _, ok := l.seen.Get(seenKey); ok {
		duplicateAttestationsTotal.Inc()
		return types.ErrDuplicateAttestation
	}

	rec, err := l.liveRecord(nonce)
	if err != nil {
		return err
	}
	updated := cloneRecord(rec)
	slot, ok := updated.Slots[validator.Hex()]
	if ok && (updated.Attested.BitAt(slot) || updated.FailVotes.BitAt(slot)) {
		duplicateAttestationsTotal.Inc()
		return types.ErrDuplicateAttestation
	}
	if !ok {
		if updated.NextSlot >= updated.Attested.Len() {
			return types.ErrCapacityExceeded
		}
		slot = updated.NextSlot
		updated.Slots[validator.Hex()] = slot
		updated.NextSlot++
	}
	if failVote {
		updated.FailVotes.SetBitAt(slot, true)
	} else {
		updated.Attested.SetBitAt(slot, true)
	}
	if err := l.db.SaveAttestationRecord(l.ctx, updated); err != nil {
		return errors.Wrap(err, "could not persist attestation record")
	}
	l.records[nonce] = updated
	l.seen.Add(seenKey, true)
	attestationsProcessedTotal.Inc()
	log.WithField("nonce", nonce).
		WithField("validator", validator.Hex()).
		WithField("failVote", failVote).
		Debug("Vote recorded")
	return nil
}

// HasAttested reports whether validator already attested or fail-voted nonce.
func (l *Ledger) HasAttested(nonce uint64, validator common.Address) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	rec, err := l.liveRecord(nonce)
	if err != nil {
		return false
	}
	slot, ok := rec.Slots[validator.Hex()]
	return ok && (rec.Attested.BitAt(slot) || rec.FailVotes.BitAt(slot))
}

// Attesters returns the addresses recorded on the attestation bitmap.
func (l *Ledger) Attesters(nonce uint64) ([]common.Address, error) {
	return l.voters(nonce, false)
}

// FailVoters returns the addresses recorded on the fail-vote bitmap.
func (l *Ledger) FailVoters(nonce uint64) ([]common.Address, error) {
	return l.voters(nonce, true)
}

func (l *Ledger) voters(nonce uint64, failVotes bool) ([]common.Address, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	rec, err := l.liveRecord(nonce)
	if err != nil {
		return nil, err
	}
	var out []common.Address
	for hexAddr, slot := range rec.Slots {
		bits := rec.Attested
		if failVotes {
			bits = rec.FailVotes
		}
		if bits.BitAt(slot) {
			out = append(out, common.HexToAddress(hexAddr))
		}
	}
	return out, nil
}

// Count returns the number of recorded attestations for nonce. The count
// never decreases and equals the number of set bits.
func (l *Ledger) Count(nonce uint64) uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	rec, err := l.liveRecord(nonce)
	if err != nil {
		return 0
	}
	return rec.Attested.Count()
}

// FailVoteCount returns the number of recorded fail votes for nonce.
func (l *Ledger) FailVoteCount(nonce uint64) uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	rec, err := l.liveRecord(nonce)
	if err != nil {
		return 0
	}
	return rec.FailVotes.Count()
}

// liveRecord returns the live record for nonce, loading it from the database
// or creating it on first touch. Callers hold the lock.
func (l *Ledger) liveRecord(nonce uint64) (*types.AttestationRecord, error) {
	if rec, ok := l.records[nonce]; ok {
		return rec, nil
	}
	rec, err := l.db.AttestationRecord(l.ctx, nonce)
	if err != nil {
		return nil, errors.Wrap(err, "could not load attestation record")
	}
	if rec == nil {
		slots := params.BridgeConfig().MaxActiveValidators
		rec = &types.AttestationRecord{
			Nonce:     nonce,
			Attested:  bitfield.NewBitlist(slots),
			FailVotes: bitfield.NewBitlist(slots),
			Slots:     make(map[string]uint64),
		}
	}
	l.records[nonce] = rec
	return rec, nil
}

func cloneRecord(rec *types.AttestationRecord) *types.AttestationRecord {
	cp := &types.AttestationRecord{
		Nonce:     rec.Nonce,
		Attested:  make(bitfield.Bitlist, len(rec.Attested)),
		FailVotes: make(bitfield.Bitlist, len(rec.FailVotes)),
		Slots:     make(map[string]uint64, len(rec.Slots)),
		NextSlot:  rec.NextSlot,
	}
	copy(cp.Attested, rec.Attested)
	copy(cp.FailVotes, rec.FailVotes)
	for k, v := range rec.Slots {
		cp.Slots[k] = v
	}
	return cp
}
