// Package mirror persists the outcomes of ledger operations into the
// relational store the web application reads from. The ledger stays
// authoritative; these rows only exist so page queries don't need a chain
// round trip. Identifiers assigned by the contracts and the transaction
// hashes that produced them are the values worth keeping.
package mirror

import (
	"context"
	"fmt"

	"github.com/dermacoin/platform/foundation/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store manages the set of mirror writes to the database.
type Store struct {
	log *zap.SugaredLogger
	db  *pgxpool.Pool
}

// NewStore constructs a store for mirror writes.
func NewStore(log *zap.SugaredLogger, db *pgxpool.Pool) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// Open validates the database is reachable and returns a connection pool.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("constructing connection pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// SaveCharity records a charity registered on the ledger.
func (s *Store) SaveCharity(ctx context.Context, chainID uint64, name string, description string, admin string) error {
	const q = `
	INSERT INTO charities
		(chain_id, name, description, admin_address, created_at)
	VALUES
		($1, $2, $3, $4, NOW())
	ON CONFLICT (chain_id) DO NOTHING`

	if _, err := s.db.Exec(ctx, q, chainID, name, description, admin); err != nil {
		return fmt.Errorf("inserting charity: %w", err)
	}

	return nil
}

// SetCharityVerified records a charity's verified flag change.
func (s *Store) SetCharityVerified(ctx context.Context, chainID uint64, verified bool) error {
	const q = `
	UPDATE charities
		SET verified = $2, updated_at = NOW()
	WHERE chain_id = $1`

	if _, err := s.db.Exec(ctx, q, chainID, verified); err != nil {
		return fmt.Errorf("updating charity verified flag: %w", err)
	}

	return nil
}

// SaveProject records a project created on the ledger.
func (s *Store) SaveProject(ctx context.Context, chainID uint64, charityChainID uint64, name string, contentRef string) error {
	const q = `
	INSERT INTO projects
		(chain_id, charity_chain_id, name, content_ref, created_at)
	VALUES
		($1, $2, $3, $4, NOW())
	ON CONFLICT (chain_id) DO NOTHING`

	if _, err := s.db.Exec(ctx, q, chainID, charityChainID, name, contentRef); err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	return nil
}

// SaveProposal records a proposal submitted on the ledger.
func (s *Store) SaveProposal(ctx context.Context, chainID uint64, projectChainID uint64, description string, requestedAmount string, destination string) error {
	const q = `
	INSERT INTO proposals
		(chain_id, project_chain_id, description, requested_amount, destination_address, created_at)
	VALUES
		($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (chain_id) DO NOTHING`

	if _, err := s.db.Exec(ctx, q, chainID, projectChainID, description, requestedAmount, destination); err != nil {
		return fmt.Errorf("inserting proposal: %w", err)
	}

	return nil
}

// SetProposalApproved records a proposal approval.
func (s *Store) SetProposalApproved(ctx context.Context, chainID uint64) error {
	const q = `
	UPDATE proposals
		SET is_approved = TRUE, approval_date = NOW(), updated_at = NOW()
	WHERE chain_id = $1`

	if _, err := s.db.Exec(ctx, q, chainID); err != nil {
		return fmt.Errorf("updating proposal approval: %w", err)
	}

	return nil
}

// SetProposalClaimed records a proposal claim.
func (s *Store) SetProposalClaimed(ctx context.Context, chainID uint64) error {
	const q = `
	UPDATE proposals
		SET is_claimed = TRUE, claim_date = NOW(), updated_at = NOW()
	WHERE chain_id = $1`

	if _, err := s.db.Exec(ctx, q, chainID); err != nil {
		return fmt.Errorf("updating proposal claim: %w", err)
	}

	return nil
}

// SaveDonation records a mined donation.
func (s *Store) SaveDonation(ctx context.Context, projectChainID uint64, donor string, amount string, txHash string) error {
	const q = `
	INSERT INTO donations
		(project_chain_id, donor_address, amount, tx_hash, created_at)
	VALUES
		($1, $2, $3, $4, NOW())`

	if _, err := s.db.Exec(ctx, q, projectChainID, donor, amount, txHash); err != nil {
		return fmt.Errorf("inserting donation: %w", err)
	}

	return nil
}

// SaveAllocations records the allocations a round distribution produced,
// batched into one round trip.
func (s *Store) SaveAllocations(ctx context.Context, allocations []ledger.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}

	const q = `
	INSERT INTO allocations
		(round_id, project_chain_id, amount, created_at)
	VALUES
		($1, $2, $3, NOW())`

	batch := pgx.Batch{}
	for _, alc := range allocations {
		batch.Queue(q, alc.RoundID, alc.ProjectID, alc.Amount)
	}

	results := s.db.SendBatch(ctx, &batch)
	defer results.Close()

	for range allocations {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting allocation: %w", err)
		}
	}

	return nil
}
