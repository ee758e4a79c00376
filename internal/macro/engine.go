// Package macro provides the relational macro library: a small catalog
// of parameterized analytical queries over an embedded
// modernc.org/sqlite session.
//
// Each macro is a Go method taking named parameters and returning typed
// rows, with the underlying SQL kept inside one *sql.DB session per
// Engine and every parameter bound, never string-interpolated.
package macro

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/staging"
)

// Engine wraps one in-memory sqlite session holding the staging
// relations for a single pipeline run. It is not safe for concurrent
// use by multiple goroutines; the artifact writer opens
// one Engine per task.
type Engine struct {
	db *sql.DB
}

const schema = `
CREATE TABLE memberships (
	id INTEGER, person_id INTEGER, chamber_id INTEGER,
	party_id INTEGER, effective_party_id INTEGER,
	start_date TEXT, end_date TEXT
);
CREATE TABLE policy_divisions_relevant (
	policy_id INTEGER, period_id INTEGER, division_id INTEGER,
	chamber_id INTEGER, date TEXT, alignment TEXT,
	strong_int INTEGER, agree_int INTEGER
);
CREATE TABLE policy_agreements_relevant (
	policy_id INTEGER, period_id INTEGER, agreement_id INTEGER,
	chamber_id INTEGER, date TEXT, alignment TEXT,
	strong_int INTEGER, agree_int INTEGER
);
CREATE TABLE votes_relevant (
	division_id INTEGER, person_id INTEGER, membership_id INTEGER,
	position TEXT, effective_party_id INTEGER, chamber_id INTEGER
);
CREATE TABLE collective_relevant (
	agreement_id INTEGER, person_id INTEGER,
	chamber_id INTEGER, effective_party_id INTEGER
);
CREATE INDEX idx_pdr_division ON policy_divisions_relevant(division_id);
CREATE INDEX idx_votes_division ON votes_relevant(division_id);
CREATE INDEX idx_collective_agreement ON collective_relevant(agreement_id);
CREATE INDEX idx_par_agreement ON policy_agreements_relevant(agreement_id);
CREATE INDEX idx_memberships_person_chamber ON memberships(person_id, chamber_id);
`

// NewEngine opens a fresh in-memory sqlite session and creates the
// staging schema. Call Close when done.
func NewEngine(ctx context.Context) (*Engine, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("macro: open engine: %w", err)
	}
	db.SetMaxOpenConns(1) // one session, per the package doc's design constraint

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("macro: create schema: %w", err)
	}
	return &Engine{db: db}, nil
}

// Close releases the underlying sqlite connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}

// LoadMemberships loads every membership the engine may need to
// evaluate target_memberships() and comparator-party filtering for any
// person this session will be asked about.
func (e *Engine) LoadMemberships(ctx context.Context, memberships []model.Membership) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO memberships
			(id, person_id, chamber_id, party_id, effective_party_id, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, m := range memberships {
			if _, err := stmt.ExecContext(ctx, m.ID, m.PersonID, m.ChamberID, m.PartyID,
				m.EffectivePartyID, dateStr(m.StartDate), dateStr(m.EndDate)); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadDivisionsRelevant loads policy_divisions_relevant rows, produced
// by internal/staging.
func (e *Engine) LoadDivisionsRelevant(ctx context.Context, rows []staging.PolicyDivisionRow) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO policy_divisions_relevant
			(policy_id, period_id, division_id, chamber_id, date, alignment, strong_int, agree_int)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.PolicyID, r.PeriodID, r.DivisionID, r.ChamberID,
				dateStr(r.Date), string(r.Alignment), r.StrongInt, r.AgreeInt); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAgreementsRelevant loads policy_agreements_relevant rows.
func (e *Engine) LoadAgreementsRelevant(ctx context.Context, rows []staging.PolicyAgreementRow) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO policy_agreements_relevant
			(policy_id, period_id, agreement_id, chamber_id, date, alignment, strong_int, agree_int)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.PolicyID, r.PeriodID, r.AgreementID, r.ChamberID,
				dateStr(r.Date), string(r.Alignment), r.StrongInt, r.AgreeInt); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadVotesRelevant loads votes_relevant rows.
func (e *Engine) LoadVotesRelevant(ctx context.Context, rows []staging.VoteRow) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO votes_relevant
			(division_id, person_id, membership_id, position, effective_party_id, chamber_id)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.DivisionID, r.PersonID, r.MembershipID,
				string(r.Position), r.EffectivePartyID, r.ChamberID); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadCollectiveRelevant loads collective_relevant rows.
func (e *Engine) LoadCollectiveRelevant(ctx context.Context, rows []staging.CollectiveRow) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO collective_relevant
			(agreement_id, person_id, chamber_id, effective_party_id)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.AgreementID, r.PersonID, r.ChamberID, r.EffectivePartyID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("macro: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
