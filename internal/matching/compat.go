// internal/matching/compat.go
// Mutual orientation/gender compatibility.

package matching

// Preference pairs an eligible candidate gender with the candidate
// orientations that would accept the viewer back.
type Preference struct {
	Gender       string
	Orientations []string
}

const (
	genderMale   = "homme"
	genderFemale = "femme"

	orientationHetero = "hetero"
	orientationHomo   = "homo"
	orientationBi     = "bi"
)

func oppositeGender(gender string) string {
	if gender == genderMale {
		return genderFemale
	}
	return genderMale
}

// CompatiblePreferences returns the candidate pools eligible for a viewer.
// The rule is mutual: a candidate is listed only when the candidate's own
// gender and orientation would accept the viewer in return.
//
//   - hetero: opposite gender, orientation hetero or bi
//   - homo:   same gender, orientation homo or bi
//   - bi (or unset): both of the above pools
func CompatiblePreferences(gender, orientation string) []Preference {
	if orientation == "" {
		orientation = orientationBi
	}

	heteroPool := Preference{
		Gender:       oppositeGender(gender),
		Orientations: []string{orientationHetero, orientationBi},
	}
	homoPool := Preference{
		Gender:       gender,
		Orientations: []string{orientationHomo, orientationBi},
	}

	switch orientation {
	case orientationHetero:
		return []Preference{heteroPool}
	case orientationHomo:
		return []Preference{homoPool}
	default:
		return []Preference{heteroPool, homoPool}
	}
}

// Compatible reports whether a viewer and a candidate are mutually eligible.
func Compatible(viewerGender, viewerOrientation, candidateGender, candidateOrientation string) bool {
	if candidateOrientation == "" {
		candidateOrientation = orientationBi
	}

	for _, pref := range CompatiblePreferences(viewerGender, viewerOrientation) {
		if pref.Gender != candidateGender {
			continue
		}
		for _, o := range pref.Orientations {
			if o == candidateOrientation {
				return true
			}
		}
	}

	return false
}
