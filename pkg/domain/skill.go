package domain

import "fmt"

// SkillLevel is a proficiency tier. Levels are totally ordered; a higher
// level satisfies any requirement at or below it.
type SkillLevel int

const (
	SkillLevelNone  SkillLevel = 0
	SkillLevelBasic SkillLevel = 1
	SkillLevelInter SkillLevel = 2
	SkillLevelExpert SkillLevel = 3
)

// IsValid reports whether the level is one of the three defined tiers.
func (l SkillLevel) IsValid() bool { return l >= SkillLevelBasic && l <= SkillLevelExpert }

// SkillRequirement pairs a skill code with the minimum level a candidate
// must hold.
type SkillRequirement struct {
	SkillCode    string
	MinimumLevel SkillLevel
}

// NewSkillRequirement validates and builds a SkillRequirement.
func NewSkillRequirement(skillCode string, minimumLevel SkillLevel) (SkillRequirement, error) {
	if skillCode == "" {
		return SkillRequirement{}, NewValidationError("skill_code", "skill code must not be empty")
	}
	if !minimumLevel.IsValid() {
		return SkillRequirement{}, NewValidationError("minimum_level", fmt.Sprintf("minimum level %d out of range [1,3]", minimumLevel))
	}
	return SkillRequirement{SkillCode: skillCode, MinimumLevel: minimumLevel}, nil
}

// SatisfiedBy reports whether a candidate's level at SkillCode meets the
// requirement. heldLevel is SkillLevelNone when the candidate does not
// hold the skill at all.
func (r SkillRequirement) SatisfiedBy(heldLevel SkillLevel) bool {
	return heldLevel >= r.MinimumLevel
}

// SkillSet is an operator's or machine's skill-code -> level map.
type SkillSet map[string]SkillLevel

// Meets reports whether the set satisfies every requirement.
func (s SkillSet) Meets(requirements []SkillRequirement) bool {
	for _, req := range requirements {
		if !req.SatisfiedBy(s[req.SkillCode]) {
			return false
		}
	}
	return true
}
