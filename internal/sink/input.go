package sink

import (
	"context"
	"fmt"

	"github.com/mysociety/policyscore/internal/model"
)

// ListPersons returns every person row.
func (db *DB) ListPersons(ctx context.Context) ([]model.Person, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, name FROM persons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sink: list persons: %w", err)
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		var p model.Person
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("sink: scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListChambers returns every chamber row.
func (db *DB) ListChambers(ctx context.Context) ([]model.Chamber, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, slug FROM chambers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sink: list chambers: %w", err)
	}
	defer rows.Close()

	var out []model.Chamber
	for rows.Next() {
		var c model.Chamber
		if err := rows.Scan(&c.ID, &c.Slug); err != nil {
			return nil, fmt.Errorf("sink: scan chamber: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListParties returns every party row.
func (db *DB) ListParties(ctx context.Context) ([]model.Party, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, slug FROM parties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sink: list parties: %w", err)
	}
	defer rows.Close()

	var out []model.Party
	for rows.Next() {
		var p model.Party
		if err := rows.Scan(&p.ID, &p.Slug); err != nil {
			return nil, fmt.Errorf("sink: scan party: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListMemberships returns every membership row.
func (db *DB) ListMemberships(ctx context.Context) ([]model.Membership, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, person_id, chamber_id, party_id, effective_party_id, start_date, end_date
		 FROM memberships ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: list memberships: %w", err)
	}
	defer rows.Close()

	var out []model.Membership
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(
			&m.ID, &m.PersonID, &m.ChamberID, &m.PartyID, &m.EffectivePartyID,
			&m.StartDate, &m.EndDate,
		); err != nil {
			return nil, fmt.Errorf("sink: scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListDivisions returns every division row.
func (db *DB) ListDivisions(ctx context.Context) ([]model.Division, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, key, chamber_id, date, division_number, motion_id FROM divisions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: list divisions: %w", err)
	}
	defer rows.Close()

	var out []model.Division
	for rows.Next() {
		var d model.Division
		if err := rows.Scan(&d.ID, &d.Key, &d.ChamberID, &d.Date, &d.DivisionNumber, &d.MotionID); err != nil {
			return nil, fmt.Errorf("sink: scan division: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListAgreements returns every agreement row.
func (db *DB) ListAgreements(ctx context.Context) ([]model.Agreement, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, key, chamber_id, date, decision_ref, motion_id FROM agreements ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: list agreements: %w", err)
	}
	defer rows.Close()

	var out []model.Agreement
	for rows.Next() {
		var a model.Agreement
		if err := rows.Scan(&a.ID, &a.Key, &a.ChamberID, &a.Date, &a.DecisionRef, &a.MotionID); err != nil {
			return nil, fmt.Errorf("sink: scan agreement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListVotes returns every vote row.
func (db *DB) ListVotes(ctx context.Context) ([]model.Vote, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT division_id, person_id, membership_id, position FROM votes ORDER BY division_id, person_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: list votes: %w", err)
	}
	defer rows.Close()

	var out []model.Vote
	for rows.Next() {
		var v model.Vote
		if err := rows.Scan(&v.DivisionID, &v.PersonID, &v.MembershipID, &v.Position); err != nil {
			return nil, fmt.Errorf("sink: scan vote: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListPolicyComparisonPeriods returns every comparison period row.
func (db *DB) ListPolicyComparisonPeriods(ctx context.Context) ([]model.PolicyComparisonPeriod, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, slug, chamber_id, start_date, end_date FROM policy_comparison_periods ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: list policy comparison periods: %w", err)
	}
	defer rows.Close()

	var out []model.PolicyComparisonPeriod
	for rows.Next() {
		var p model.PolicyComparisonPeriod
		if err := rows.Scan(&p.ID, &p.Slug, &p.ChamberID, &p.StartDate, &p.EndDate); err != nil {
			return nil, fmt.Errorf("sink: scan policy comparison period: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPolicies returns every policy row ordered by id, whatever its
// status; it does not filter by status.
func (db *DB) ListPolicies(ctx context.Context) ([]model.Policy, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, chamber_id, status, strength_meaning, policy_hash FROM policies ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: list policies: %w", err)
	}
	defer rows.Close()

	var out []model.Policy
	for rows.Next() {
		var p model.Policy
		if err := rows.Scan(&p.ID, &p.ChamberID, &p.Status, &p.StrengthMeaning, &p.PolicyHash); err != nil {
			return nil, fmt.Errorf("sink: scan policy: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPolicyDivisionLinks returns every policy-division link, excluding
// links whose division predates model.HardCutoffDate.
func (db *DB) ListPolicyDivisionLinks(ctx context.Context) ([]model.PolicyDivisionLink, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT l.policy_id, l.division_id, l.alignment, l.strength
		 FROM policy_division_links l
		 JOIN divisions d ON d.id = l.division_id
		 WHERE d.date >= $1
		 ORDER BY l.policy_id, l.division_id`,
		model.HardCutoffDate,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: list policy division links: %w", err)
	}
	defer rows.Close()

	var out []model.PolicyDivisionLink
	for rows.Next() {
		var l model.PolicyDivisionLink
		if err := rows.Scan(&l.PolicyID, &l.DivisionID, &l.Alignment, &l.Strength); err != nil {
			return nil, fmt.Errorf("sink: scan policy division link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListPolicyAgreementLinks returns every policy-agreement link, excluding
// links whose agreement predates model.HardCutoffDate.
func (db *DB) ListPolicyAgreementLinks(ctx context.Context) ([]model.PolicyAgreementLink, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT l.policy_id, l.agreement_id, l.alignment, l.strength
		 FROM policy_agreement_links l
		 JOIN agreements a ON a.id = l.agreement_id
		 WHERE a.date >= $1
		 ORDER BY l.policy_id, l.agreement_id`,
		model.HardCutoffDate,
	)
	if err != nil {
		return nil, fmt.Errorf("sink: list policy agreement links: %w", err)
	}
	defer rows.Close()

	var out []model.PolicyAgreementLink
	for rows.Next() {
		var l model.PolicyAgreementLink
		if err := rows.Scan(&l.PolicyID, &l.AgreementID, &l.Alignment, &l.Strength); err != nil {
			return nil, fmt.Errorf("sink: scan policy agreement link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
