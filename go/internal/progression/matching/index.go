// Package matching locates defendants and offences inside case aggregates.
// Lookups are total: a key that does not match yields a Path saying where
// it stopped matching, never a panic.
package matching

import (
	"github.com/mcdev12/progression/go/internal/models"
)

// Level is the depth at which a key stopped matching.
type Level int

const (
	LevelNone Level = iota
	LevelCase
	LevelDefendant
	LevelOffence
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelCase:
		return "case"
	case LevelDefendant:
		return "defendant"
	case LevelOffence:
		return "offence"
	default:
		return "unknown"
	}
}

// MatchKey addresses a defendant, and optionally one of their offences,
// within a case.
type MatchKey struct {
	CaseID      string
	DefendantID string
	OffenceID   string
}

// Path is the result of resolving a MatchKey. Fields are set down to the
// last level that matched.
type Path struct {
	Case        *models.ProsecutionCase
	Defendant   *models.Defendant
	Offence     *models.Offence
	UnmatchedAt Level
}

func (p Path) Matched() bool {
	return p.UnmatchedAt == LevelNone
}

type defendantNode struct {
	defendant *models.Defendant
	offences  map[string]*models.Offence
}

type caseNode struct {
	pc   *models.ProsecutionCase
	byID map[string]*defendantNode
}

// Index is built once per aggregate. Insertion order is kept at every level
// and the first occurrence of a duplicated id wins.
type Index struct {
	cases  []*caseNode
	byCase map[string]*caseNode
}

// NewIndex indexes cases. The index points into the given slice and must
// not outlive modifications to it.
func NewIndex(cases []models.ProsecutionCase) *Index {
	idx := &Index{byCase: make(map[string]*caseNode, len(cases))}
	for i := range cases {
		pc := &cases[i]
		if pc.ID == "" {
			continue
		}
		if _, dup := idx.byCase[pc.ID]; dup {
			continue
		}
		node := &caseNode{pc: pc, byID: make(map[string]*defendantNode, len(pc.Defendants))}
		for j := range pc.Defendants {
			d := &pc.Defendants[j]
			if d.ID == "" {
				continue
			}
			if _, dup := node.byID[d.ID]; dup {
				continue
			}
			dn := &defendantNode{defendant: d, offences: make(map[string]*models.Offence, len(d.Offences))}
			for k := range d.Offences {
				o := &d.Offences[k]
				if _, dup := dn.offences[o.ID]; o.ID == "" || dup {
					continue
				}
				dn.offences[o.ID] = o
			}
			node.byID[d.ID] = dn
		}
		idx.cases = append(idx.cases, node)
		idx.byCase[pc.ID] = node
	}
	return idx
}

// FromHearing indexes the cases listed on a hearing.
func FromHearing(h models.Hearing) *Index {
	return NewIndex(h.ProsecutionCases)
}

// CaseIDs returns distinct case ids in aggregate order.
func (idx *Index) CaseIDs() []string {
	if idx == nil {
		return nil
	}
	ids := make([]string, len(idx.cases))
	for i, c := range idx.cases {
		ids[i] = c.pc.ID
	}
	return ids
}

// Case returns the indexed case with the given id.
func (idx *Index) Case(caseID string) (*models.ProsecutionCase, bool) {
	if idx == nil {
		return nil, false
	}
	node, ok := idx.byCase[caseID]
	if !ok {
		return nil, false
	}
	return node.pc, true
}

// Resolve walks key down the aggregate. An empty OffenceID matches at the
// defendant level.
func (idx *Index) Resolve(key MatchKey) Path {
	if idx == nil {
		return Path{UnmatchedAt: LevelCase}
	}
	node, ok := idx.byCase[key.CaseID]
	if !ok {
		return Path{UnmatchedAt: LevelCase}
	}
	path := Path{Case: node.pc}
	dn, ok := node.byID[key.DefendantID]
	if !ok {
		path.UnmatchedAt = LevelDefendant
		return path
	}
	path.Defendant = dn.defendant
	if key.OffenceID == "" {
		return path
	}
	o, ok := dn.offences[key.OffenceID]
	if !ok {
		path.UnmatchedAt = LevelOffence
		return path
	}
	path.Offence = o
	return path
}

// FindDefendant resolves a defendant without knowing the case. The first
// case in aggregate order that lists the defendant wins.
func (idx *Index) FindDefendant(defendantID string) Path {
	if idx == nil {
		return Path{UnmatchedAt: LevelCase}
	}
	for _, node := range idx.cases {
		if dn, ok := node.byID[defendantID]; ok {
			return Path{Case: node.pc, Defendant: dn.defendant}
		}
	}
	return Path{UnmatchedAt: LevelDefendant}
}

// CasesContainingOffence returns, in aggregate order, the ids of every case
// in which the defendant is charged with the offence. More than one id means
// the offence cannot be attributed to a single case.
func (idx *Index) CasesContainingOffence(defendantID, offenceID string) []string {
	if idx == nil {
		return nil
	}
	var ids []string
	for _, node := range idx.cases {
		dn, ok := node.byID[defendantID]
		if !ok {
			continue
		}
		if _, ok := dn.offences[offenceID]; ok {
			ids = append(ids, node.pc.ID)
		}
	}
	return ids
}
