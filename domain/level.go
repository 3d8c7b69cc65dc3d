package domain

import (
	"fmt"
	"strings"
)

// Level is the declared maturity of a project
type Level string

const (
	LevelPrototype  Level = "prototype"
	LevelProduction Level = "production"
	LevelEnterprise Level = "enterprise"
)

// DefaultLevel is used when nothing else is configured
const DefaultLevel = LevelProduction

// AllLevels returns levels ordered by strictness
func AllLevels() []Level {
	return []Level{LevelPrototype, LevelProduction, LevelEnterprise}
}

// ParseLevel converts a string into a Level
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if l.Valid() {
		return l, nil
	}
	return "", NewInvalidInputError(fmt.Sprintf("unknown level %q (want prototype, production or enterprise)", s), nil)
}

// Valid reports whether l is a known level
func (l Level) Valid() bool {
	switch l {
	case LevelPrototype, LevelProduction, LevelEnterprise:
		return true
	}
	return false
}

// Rank orders levels by strictness, -1 for unknown levels
func (l Level) Rank() int {
	switch l {
	case LevelPrototype:
		return 0
	case LevelProduction:
		return 1
	case LevelEnterprise:
		return 2
	}
	return -1
}

// AtLeast reports whether l is as strict as other
func (l Level) AtLeast(other Level) bool {
	return l.Rank() >= other.Rank()
}

// CheckSet holds the policy sets for a level
type CheckSet struct {
	Required []CheckID `json:"required" yaml:"required"`
	Optional []CheckID `json:"optional" yaml:"optional"`
	Skip     []CheckID `json:"skip" yaml:"skip"`
}

// IsRequired reports whether id is in the required set
func (s CheckSet) IsRequired(id CheckID) bool {
	return containsCheck(s.Required, id)
}

// IsOptional reports whether id is in the optional set
func (s CheckSet) IsOptional(id CheckID) bool {
	return containsCheck(s.Optional, id)
}

// IsSkipped reports whether id is in the skip set
func (s CheckSet) IsSkipped(id CheckID) bool {
	return containsCheck(s.Skip, id)
}

func containsCheck(ids []CheckID, id CheckID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// ConfigStore persists the project level override
type ConfigStore interface {
	// ReadLevel returns the stored level. found is false when no override exists.
	ReadLevel() (level Level, found bool, err error)

	// WriteLevel stores a level override
	WriteLevel(level Level) error

	// Location describes where the override lives
	Location() string
}

// LevelPolicy maps levels to check sets
type LevelPolicy interface {
	Resolve(level Level) CheckSet
	Detect(repo *RepositoryContext, store ConfigStore) (Level, []string)
	EffectiveChecks(level Level, requested []CheckID, strict bool) []CheckID
}
