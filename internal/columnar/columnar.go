// Package columnar implements the on-disk partition file format used by
// the artifact writer and the coalescer.
//
// These artifacts are named "*.parquet" externally, but no Parquet or
// Arrow encoder is available anywhere in the dependency corpus this
// repository was grounded on. This package preserves the external
// filename contract (every path still ends in ".parquet") while
// encoding the actual bytes with the standard library's encoding/gob
// in a columnar layout: each VoteDistribution field is stored as its
// own slice rather than as a sequence of row structs. See DESIGN.md
// for the fuller justification of this deviation.
package columnar

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mysociety/policyscore/internal/model"
)

// Partition is the columnar, on-disk representation of a slice of
// VoteDistribution rows. Every slice has the same length; row i is
// reconstructed by reading index i out of each column.
type Partition struct {
	PolicyID  []int64
	PersonID  []int64
	PeriodID  []int64
	ChamberID []int64
	PartyID   []*int64
	IsTarget  []bool

	NumStrongVotesSame      []float64
	NumWeakVotesSame        []float64
	NumStrongVotesDifferent []float64
	NumWeakVotesDifferent   []float64
	NumStrongVotesAbsent    []float64
	NumWeakVotesAbsent      []float64
	NumStrongVotesAbstain   []float64
	NumWeakVotesAbstain     []float64

	NumStrongAgreementsSame      []float64
	NumWeakAgreementsSame        []float64
	NumStrongAgreementsDifferent []float64
	NumWeakAgreementsDifferent   []float64

	StartYear     []int
	EndYear       []int
	DistanceScore []float64
	PolicyHash    []string
}

// Len returns the number of rows in the partition.
func (p *Partition) Len() int {
	return len(p.PersonID)
}

// FromRows builds a columnar Partition from row-oriented VoteDistribution
// values, the shape the alignment pipeline produces.
func FromRows(rows []model.VoteDistribution) *Partition {
	p := &Partition{}
	for _, r := range rows {
		p.PolicyID = append(p.PolicyID, r.PolicyID)
		p.PersonID = append(p.PersonID, r.PersonID)
		p.PeriodID = append(p.PeriodID, r.PeriodID)
		p.ChamberID = append(p.ChamberID, r.ChamberID)
		p.PartyID = append(p.PartyID, r.PartyID)
		p.IsTarget = append(p.IsTarget, r.IsTarget)

		p.NumStrongVotesSame = append(p.NumStrongVotesSame, r.NumStrongVotesSame)
		p.NumWeakVotesSame = append(p.NumWeakVotesSame, r.NumWeakVotesSame)
		p.NumStrongVotesDifferent = append(p.NumStrongVotesDifferent, r.NumStrongVotesDifferent)
		p.NumWeakVotesDifferent = append(p.NumWeakVotesDifferent, r.NumWeakVotesDifferent)
		p.NumStrongVotesAbsent = append(p.NumStrongVotesAbsent, r.NumStrongVotesAbsent)
		p.NumWeakVotesAbsent = append(p.NumWeakVotesAbsent, r.NumWeakVotesAbsent)
		p.NumStrongVotesAbstain = append(p.NumStrongVotesAbstain, r.NumStrongVotesAbstain)
		p.NumWeakVotesAbstain = append(p.NumWeakVotesAbstain, r.NumWeakVotesAbstain)

		p.NumStrongAgreementsSame = append(p.NumStrongAgreementsSame, r.NumStrongAgreementsSame)
		p.NumWeakAgreementsSame = append(p.NumWeakAgreementsSame, r.NumWeakAgreementsSame)
		p.NumStrongAgreementsDifferent = append(p.NumStrongAgreementsDifferent, r.NumStrongAgreementsDifferent)
		p.NumWeakAgreementsDifferent = append(p.NumWeakAgreementsDifferent, r.NumWeakAgreementsDifferent)

		p.StartYear = append(p.StartYear, r.StartYear)
		p.EndYear = append(p.EndYear, r.EndYear)
		p.DistanceScore = append(p.DistanceScore, r.DistanceScore)
		p.PolicyHash = append(p.PolicyHash, r.PolicyHash)
	}
	return p
}

// Rows reconstructs row-oriented VoteDistribution values from the
// partition's columns.
func (p *Partition) Rows() []model.VoteDistribution {
	rows := make([]model.VoteDistribution, p.Len())
	for i := range rows {
		rows[i] = model.VoteDistribution{
			PolicyID:  p.PolicyID[i],
			PersonID:  p.PersonID[i],
			PeriodID:  p.PeriodID[i],
			ChamberID: p.ChamberID[i],
			PartyID:   p.PartyID[i],
			IsTarget:  p.IsTarget[i],

			NumStrongVotesSame:      p.NumStrongVotesSame[i],
			NumWeakVotesSame:        p.NumWeakVotesSame[i],
			NumStrongVotesDifferent: p.NumStrongVotesDifferent[i],
			NumWeakVotesDifferent:   p.NumWeakVotesDifferent[i],
			NumStrongVotesAbsent:    p.NumStrongVotesAbsent[i],
			NumWeakVotesAbsent:      p.NumWeakVotesAbsent[i],
			NumStrongVotesAbstain:   p.NumStrongVotesAbstain[i],
			NumWeakVotesAbstain:     p.NumWeakVotesAbstain[i],

			NumStrongAgreementsSame:      p.NumStrongAgreementsSame[i],
			NumWeakAgreementsSame:        p.NumWeakAgreementsSame[i],
			NumStrongAgreementsDifferent: p.NumStrongAgreementsDifferent[i],
			NumWeakAgreementsDifferent:   p.NumWeakAgreementsDifferent[i],

			StartYear:     p.StartYear[i],
			EndYear:       p.EndYear[i],
			DistanceScore: p.DistanceScore[i],
			PolicyHash:    p.PolicyHash[i],
		}
	}
	return rows
}

// PartitionFilename is the per-person/chamber/party output filename:
// "{person_id}_{chamber_id}_{party_id}.parquet". partyID is NoPartyID
// (0) for "independent/no party comparison".
func PartitionFilename(personID, chamberID, partyID int64) string {
	return fmt.Sprintf("%d_%d_%d.parquet", personID, chamberID, partyID)
}

// WriteFile crash-safely writes p to path: it encodes to a temp file in
// the same directory, then renames over path. A reader never observes a
// partially written or half-cancelled file.
func WriteFile(path string, p *Partition) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("columnar: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".partition-*.tmp")
	if err != nil {
		return fmt.Errorf("columnar: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	enc := gob.NewEncoder(tmp)
	if err := enc.Encode(p); err != nil {
		tmp.Close()
		return fmt.Errorf("columnar: encode %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("columnar: sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("columnar: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("columnar: rename into %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a partition previously written by WriteFile.
func ReadFile(path string) (*Partition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("columnar: open %s: %w", path, err)
	}
	defer f.Close()

	var p Partition
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("columnar: decode %s: %w", path, err)
	}
	return &p, nil
}

// ListPartitionFiles returns every "*.parquet" path directly inside dir,
// sorted for deterministic read order. Missing dir is not an error; it
// yields an empty list (a fresh output directory before the first run).
func ListPartitionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("columnar: read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".parquet" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// ClearDir removes every partition file directly inside dir; the
// artifact writer calls this first on a full recompute.
func ClearDir(dir string) error {
	files, err := ListPartitionFiles(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("columnar: remove %s: %w", f, err)
		}
	}
	return nil
}
