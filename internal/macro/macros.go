package macro

import (
	"context"
	"fmt"
	"time"

	"github.com/mysociety/policyscore/internal/model"
)

// TargetMemberships implements the target_memberships(pid, cid) macro:
// every membership row for person pid in chamber cid.
func (e *Engine) TargetMemberships(ctx context.Context, personID, chamberID int64) ([]model.Membership, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT id, person_id, chamber_id, party_id, effective_party_id, start_date, end_date
		FROM memberships
		WHERE person_id = ? AND chamber_id = ?`, personID, chamberID)
	if err != nil {
		return nil, fmt.Errorf("macro: target_memberships: %w", err)
	}
	defer rows.Close()

	var out []model.Membership
	for rows.Next() {
		var m model.Membership
		var start, end string
		if err := rows.Scan(&m.ID, &m.PersonID, &m.ChamberID, &m.PartyID, &m.EffectivePartyID, &start, &end); err != nil {
			return nil, fmt.Errorf("macro: target_memberships scan: %w", err)
		}
		m.StartDate, err = time.Parse("2006-01-02", start)
		if err != nil {
			return nil, fmt.Errorf("macro: target_memberships parse start_date: %w", err)
		}
		m.EndDate, err = time.Parse("2006-01-02", end)
		if err != nil {
			return nil, fmt.Errorf("macro: target_memberships parse end_date: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AgreementCountRow is one row of the agreement_count(pid) macro: per
// (period, policy) counts of collective agreements while pid was a
// member, bucketed by (strength, alignment).
type AgreementCountRow struct {
	PolicyID                     int64
	PeriodID                     int64
	NumStrongAgreementsSame      float64
	NumWeakAgreementsSame        float64
	NumStrongAgreementsDifferent float64
	NumWeakAgreementsDifferent   float64
}

// AgreementCount implements the agreement_count(pid) macro.
func (e *Engine) AgreementCount(ctx context.Context, personID int64) ([]AgreementCountRow, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT
			car.policy_id,
			car.period_id,
			SUM(CASE WHEN car.strong_int = 1 AND car.agree_int = 1 THEN 1 ELSE 0 END),
			SUM(CASE WHEN car.strong_int = 0 AND car.agree_int = 1 THEN 1 ELSE 0 END),
			SUM(CASE WHEN car.strong_int = 1 AND car.agree_int = 0 THEN 1 ELSE 0 END),
			SUM(CASE WHEN car.strong_int = 0 AND car.agree_int = 0 THEN 1 ELSE 0 END)
		FROM collective_relevant cr
		JOIN policy_agreements_relevant car ON car.agreement_id = cr.agreement_id
		WHERE cr.person_id = ?
		GROUP BY car.policy_id, car.period_id`, personID)
	if err != nil {
		return nil, fmt.Errorf("macro: agreement_count: %w", err)
	}
	defer rows.Close()

	var out []AgreementCountRow
	for rows.Next() {
		var r AgreementCountRow
		if err := rows.Scan(&r.PolicyID, &r.PeriodID, &r.NumStrongAgreementsSame,
			&r.NumWeakAgreementsSame, &r.NumStrongAgreementsDifferent, &r.NumWeakAgreementsDifferent); err != nil {
			return nil, fmt.Errorf("macro: agreement_count scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AlignmentRow is one row of the policy_alignment(pid, cid, party_id)
// macro: a single (period, policy, division, voter) outcome, before the
// comparisons_by_policy_vote fractionalization step.
type AlignmentRow struct {
	PolicyID   int64
	PeriodID   int64
	DivisionID int64
	Date       time.Time
	IsTarget   bool
	StrongInt  int
	Agreed     int
	Disagreed  int
	Abstained  int
	Absent     int
}

// PolicyAlignment implements the policy_alignment(pid, cid, party_id)
// macro: one row per (period, policy, division, voter) where voter is
// either pid or any current member of party_id, restricted to divisions
// whose date falls inside one of pid's own memberships in cid (the
// target_memberships join predicate).
func (e *Engine) PolicyAlignment(ctx context.Context, personID, chamberID, partyID int64) ([]AlignmentRow, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT
			d.policy_id,
			d.period_id,
			d.division_id,
			d.date,
			CASE WHEN v.person_id = ? THEN 1 ELSE 0 END AS is_target,
			d.strong_int,
			CASE WHEN (d.agree_int = 1 AND v.position = 'aye') OR (d.agree_int = 0 AND v.position = 'no') THEN 1 ELSE 0 END,
			CASE WHEN (d.agree_int = 1 AND v.position = 'no') OR (d.agree_int = 0 AND v.position = 'aye') THEN 1 ELSE 0 END,
			CASE WHEN v.position = 'abstain' THEN 1 ELSE 0 END,
			CASE WHEN v.position = 'absent' THEN 1 ELSE 0 END
		FROM policy_divisions_relevant d
		JOIN votes_relevant v ON v.division_id = d.division_id
		JOIN memberships tm ON tm.person_id = ? AND tm.chamber_id = ?
			AND d.chamber_id = tm.chamber_id
			AND d.date >= tm.start_date AND d.date <= tm.end_date
		WHERE v.person_id = ? OR v.effective_party_id = ?
		GROUP BY d.policy_id, d.period_id, d.division_id, v.person_id, d.date, is_target, d.strong_int,
			v.position
		`, personID, personID, chamberID, personID, partyID)
	if err != nil {
		return nil, fmt.Errorf("macro: policy_alignment: %w", err)
	}
	defer rows.Close()

	var out []AlignmentRow
	for rows.Next() {
		var r AlignmentRow
		var date string
		var isTarget int
		if err := rows.Scan(&r.PolicyID, &r.PeriodID, &r.DivisionID, &date, &isTarget, &r.StrongInt,
			&r.Agreed, &r.Disagreed, &r.Abstained, &r.Absent); err != nil {
			return nil, fmt.Errorf("macro: policy_alignment scan: %w", err)
		}
		r.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("macro: policy_alignment parse date: %w", err)
		}
		r.IsTarget = isTarget == 1
		out = append(out, r)
	}
	return out, rows.Err()
}
