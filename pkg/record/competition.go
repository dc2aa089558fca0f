package record

import (
	"encoding/json"
	"strings"
)

type CompetitionLevel int

const (
	CompetitionUnknown CompetitionLevel = iota
	CompetitionHigh
	CompetitionMedium
	CompetitionLow
)

// Labels as returned by the keyword tool; the export uses them unchanged.
const (
	labelHigh   = "높음"
	labelMedium = "중간"
	labelLow    = "낮음"
)

// Competition is the qualitative competition index. Unrecognized upstream strings are
// preserved so nothing is silently rewritten.
type Competition struct {
	Level CompetitionLevel
	raw   string
}

func ParseCompetition(s string) Competition {
	switch strings.TrimSpace(s) {
	case labelHigh:
		return Competition{Level: CompetitionHigh, raw: s}
	case labelMedium:
		return Competition{Level: CompetitionMedium, raw: s}
	case labelLow:
		return Competition{Level: CompetitionLow, raw: s}
	default:
		return Competition{Level: CompetitionUnknown, raw: s}
	}
}

// Label is the localized label shown to users and written to exports.
func (c Competition) Label() string {
	switch c.Level {
	case CompetitionHigh:
		return labelHigh
	case CompetitionMedium:
		return labelMedium
	case CompetitionLow:
		return labelLow
	default:
		return c.raw
	}
}

func (c Competition) String() string { return c.Label() }

func (c *Competition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// compIdx is always a string upstream; anything else is kept as its JSON text
		*c = ParseCompetition(string(data))
		return nil
	}
	*c = ParseCompetition(s)
	return nil
}

func (c Competition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Label())
}
