package service

// Rank is one rung of the XP ladder
type Rank struct {
	Name  string `json:"name"`
	MinXP int64  `json:"minXp"`
}

// RankProgress describes where a user sits on the ladder
type RankProgress struct {
	Rank       string `json:"rank"`
	XP         int64  `json:"xp"`
	NextRank   string `json:"nextRank,omitempty"`
	NextRankXP int64  `json:"nextRankXp"`
}

// ranks is ordered by ascending MinXP. The first entry is the floor every
// user starts at, so RankForXP never misses.
var ranks = []Rank{
	{Name: "Code Novice", MinXP: 0},
	{Name: "Contributor", MinXP: 100},
	{Name: "Issue Hunter", MinXP: 500},
	{Name: "Merge Wizard", MinXP: 1500},
	{Name: "Core Maintainer", MinXP: 4000},
	{Name: "Open Source Legend", MinXP: 10000},
}

// RankForXP maps an XP total onto the ladder. NextRankXP is 0 at the top
// rank, meaning there is nothing further to earn toward.
func RankForXP(xp int64) RankProgress {
	if xp < 0 {
		xp = 0
	}

	current := ranks[0]
	var next *Rank
	for i := range ranks {
		if xp >= ranks[i].MinXP {
			current = ranks[i]
			if i+1 < len(ranks) {
				next = &ranks[i+1]
			} else {
				next = nil
			}
		}
	}

	progress := RankProgress{
		Rank: current.Name,
		XP:   xp,
	}
	if next != nil {
		progress.NextRank = next.Name
		progress.NextRankXP = next.MinXP
	}
	return progress
}
