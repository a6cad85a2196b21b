package progression

// MaxLevel is the level cap.
const MaxLevel = 25

// LevelRequirements maps the current level to the balance required to reach the next one.
// Index 0 is unused so LevelRequirements[level] reads naturally.
var LevelRequirements = [MaxLevel + 1]float64{
	0,
	5_000, 25_000, 100_000, 250_000, 500_000,
	1_000_000, 2_000_000, 4_000_000, 7_500_000, 12_000_000,
	20_000_000, 32_000_000, 50_000_000, 75_000_000, 110_000_000,
	160_000_000, 230_000_000, 320_000_000, 450_000_000, 620_000_000,
	850_000_000, 1_150_000_000, 1_550_000_000, 2_000_000_000, 0,
}

// Titles names each level band; the first entry whose MinLevel <= level wins.
var Titles = []struct {
	MinLevel int
	Title    string
}{
	{25, "Cosmic Legend"},
	{20, "Nebula Lord"},
	{15, "Star Forger"},
	{10, "Comet Rider"},
	{5, "Moon Walker"},
	{1, "Stardust Scout"},
}

// Requirement returns the balance threshold to leave level. It returns false at the cap.
func Requirement(level int) (float64, bool) {
	if level < 1 || level >= MaxLevel {
		return 0, false
	}
	return LevelRequirements[level], true
}

// AdsRequired returns how many level-up ads must be watched at level before advancing.
func AdsRequired(level int) int {
	if level < 1 {
		level = 1
	}
	return 1 + level/5
}

// CanLevelUp reports whether both thresholds are met for leaving level.
func CanLevelUp(level int, balance float64, adsWatched int) bool {
	req, ok := Requirement(level)
	if !ok {
		return false
	}
	return balance >= req && adsWatched >= AdsRequired(level)
}

// Title maps a level to its display title.
func Title(level int) string {
	for _, t := range Titles {
		if level >= t.MinLevel {
			return t.Title
		}
	}
	return Titles[len(Titles)-1].Title
}
