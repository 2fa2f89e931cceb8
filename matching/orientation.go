package matching

import (
	"strings"

	"vibin_matcher/models"
)

// Orientation is a normalised sexual orientation.
type Orientation string

const (
	OrientationUnknown   Orientation = ""
	OrientationStraight  Orientation = "straight"
	OrientationGay       Orientation = "gay"
	OrientationBisexual  Orientation = "bisexual"
	OrientationPansexual Orientation = "pansexual"
	OrientationOther     Orientation = "other"
)

// NormalizeOrientation maps a free-text answer onto an Orientation by
// substring match. Blank input is OrientationUnknown.
func NormalizeOrientation(raw string) Orientation {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "":
		return OrientationUnknown
	case v == "bi" || strings.Contains(v, "bisexual"):
		return OrientationBisexual
	case v == "pan" || strings.Contains(v, "pansexual"):
		return OrientationPansexual
	case strings.Contains(v, "straight") || strings.Contains(v, "hetero"):
		return OrientationStraight
	case strings.Contains(v, "gay") || strings.Contains(v, "lesbian") || strings.Contains(v, "homo"):
		return OrientationGay
	}
	return OrientationOther
}

// NormalizeGender folds common spellings so genders compare reliably.
func NormalizeGender(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "m", "man", "male":
		return "male"
	case "f", "woman", "female":
		return "female"
	}
	return v
}

// OrientationCompatible is the romantic hard gate on gender and orientation.
func OrientationCompatible(a, b models.Candidate) bool {
	ga, gb := NormalizeGender(a.Profile.Gender), NormalizeGender(b.Profile.Gender)
	oa := NormalizeOrientation(a.Survey.Get(models.QuestionSexualOrientation))
	ob := NormalizeOrientation(b.Survey.Get(models.QuestionSexualOrientation))
	if ga == "" || gb == "" || oa == OrientationUnknown || ob == OrientationUnknown {
		return false
	}

	switch {
	case oa == OrientationBisexual || oa == OrientationPansexual ||
		ob == OrientationBisexual || ob == OrientationPansexual:
		return true
	case oa == OrientationStraight && ob == OrientationStraight:
		return ga != gb
	case oa == OrientationGay && ob == OrientationGay:
		return ga == gb
	}
	return false
}
