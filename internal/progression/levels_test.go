package progression

import "testing"

func TestRequirementsIncrease(t *testing.T) {
	for lvl := 2; lvl < MaxLevel; lvl++ {
		if LevelRequirements[lvl] <= LevelRequirements[lvl-1] {
			t.Errorf("requirement for level %d (%.0f) must exceed level %d (%.0f)",
				lvl, LevelRequirements[lvl], lvl-1, LevelRequirements[lvl-1])
		}
	}
	if _, ok := Requirement(MaxLevel); ok {
		t.Error("expected no requirement at the cap")
	}
}

func TestAdsRequired(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 1}, {4, 1}, {5, 2}, {9, 2}, {10, 3}, {24, 5},
	}
	for _, tt := range tests {
		if got := AdsRequired(tt.level); got != tt.want {
			t.Errorf("AdsRequired(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestCanLevelUp(t *testing.T) {
	req := LevelRequirements[5]
	if CanLevelUp(5, req, AdsRequired(5)-1) {
		t.Error("must not level up with too few ads")
	}
	if CanLevelUp(5, req-1, AdsRequired(5)) {
		t.Error("must not level up below balance threshold")
	}
	if !CanLevelUp(5, req, AdsRequired(5)) {
		t.Error("expected level up when both thresholds are met")
	}
	if CanLevelUp(MaxLevel, 1e18, 100) {
		t.Error("must not level past the cap")
	}
}

func TestTitle(t *testing.T) {
	if got := Title(1); got != "Stardust Scout" {
		t.Errorf("Title(1) = %q", got)
	}
	if got := Title(12); got != "Comet Rider" {
		t.Errorf("Title(12) = %q", got)
	}
	if got := Title(25); got != "Cosmic Legend" {
		t.Errorf("Title(25) = %q", got)
	}
}
