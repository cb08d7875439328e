package enrichment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
)

const topHeroLimit = 5

// toDetail views a match from teamID's side.
func toDetail(p matchPayload, teamID int64) (match.Detail, error) {
	radiantID, direID := p.RadiantTeamID, p.DireTeamID
	if radiantID == 0 && p.RadiantTeam != nil {
		radiantID = p.RadiantTeam.TeamID
	}
	if direID == 0 && p.DireTeam != nil {
		direID = p.DireTeam.TeamID
	}
	radiantName := firstNonEmpty(p.RadiantName, teamName(p.RadiantTeam))
	direName := firstNonEmpty(p.DireName, teamName(p.DireTeam))

	var out match.Detail
	switch teamID {
	case radiantID:
		out.Side = match.SideRadiant
		out.Won = p.RadiantWin
		out.OpponentTeamID = formatID(direID)
		out.OpponentName = direName
	case direID:
		out.Side = match.SideDire
		out.Won = !p.RadiantWin
		out.OpponentTeamID = formatID(radiantID)
		out.OpponentName = radiantName
	default:
		return match.Detail{}, fmt.Errorf("team %d did not play match %d", teamID, p.MatchID)
	}

	out.DurationSeconds = p.Duration
	out.StartTime = p.StartTime
	out.LeagueID = formatID(p.LeagueID)

	for _, pb := range p.PicksBans {
		out.Draft = append(out.Draft, match.DraftAction{
			HeroID: pb.HeroID,
			IsPick: pb.IsPick,
			Side:   sideOf(pb.Team == 0),
			Order:  pb.Order,
		})
	}
	sort.SliceStable(out.Draft, func(i, j int) bool { return out.Draft[i].Order < out.Draft[j].Order })

	for _, pl := range p.Players {
		radiant := pl.PlayerSlot < 128
		if pl.IsRadiant != nil {
			radiant = *pl.IsRadiant
		}
		out.Players = append(out.Players, match.PlayerRow{
			AccountID:   formatID(pl.AccountID),
			PersonaName: strings.TrimSpace(pl.PersonaName),
			HeroID:      pl.HeroID,
			Side:        sideOf(radiant),
			Kills:       pl.Kills,
			Deaths:      pl.Deaths,
			Assists:     pl.Assists,
		})
	}
	return out, nil
}

func toProfile(p playerPayload, wl winLossPayload, heroes []heroPayload) player.Profile {
	out := player.Profile{
		RankTier: p.RankTier,
		Wins:     wl.Win,
		Losses:   wl.Lose,
	}
	if p.Profile != nil {
		out.Name = firstNonEmpty(strings.TrimSpace(p.Profile.PersonaName), strings.TrimSpace(p.Profile.Name))
		out.AvatarURL = strings.TrimSpace(p.Profile.AvatarFull)
	}

	sorted := append([]heroPayload(nil), heroes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Games != sorted[j].Games {
			return sorted[i].Games > sorted[j].Games
		}
		return sorted[i].HeroID < sorted[j].HeroID
	})
	for _, h := range sorted {
		if h.Games <= 0 {
			continue
		}
		if len(out.TopHeroes) == topHeroLimit {
			break
		}
		out.TopHeroes = append(out.TopHeroes, player.HeroStat{HeroID: h.HeroID, Games: h.Games, Wins: h.Win})
	}
	return out
}

func sideOf(radiant bool) match.Side {
	if radiant {
		return match.SideRadiant
	}
	return match.SideDire
}

func teamName(ref *teamRef) string {
	if ref == nil {
		return ""
	}
	return strings.TrimSpace(ref.Name)
}

func formatID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
