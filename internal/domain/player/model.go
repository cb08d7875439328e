package player

import (
	"fmt"
	"strconv"
	"strings"
)

type HeroStat struct {
	HeroID int `json:"hero_id"`
	Games  int `json:"games"`
	Wins   int `json:"wins"`
}

// Player is global by account id; teams only reference it from a roster.
type Player struct {
	AccountID string     `json:"account_id"`
	Name      string     `json:"name"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	RankTier  int        `json:"rank_tier,omitempty"`
	Wins      int        `json:"wins"`
	Losses    int        `json:"losses"`
	TopHeroes []HeroStat `json:"top_heroes,omitempty"`
	Loading   bool       `json:"loading"`
	Error     string     `json:"error,omitempty"`
	Rev       int64      `json:"rev"`
	Origin    string     `json:"origin,omitempty"`
}

// Profile is the provider-sourced part of a player.
type Profile struct {
	Name      string
	AvatarURL string
	RankTier  int
	Wins      int
	Losses    int
	TopHeroes []HeroStat
}

func (p Player) Clone() Player {
	p.TopHeroes = append([]HeroStat(nil), p.TopHeroes...)
	return p
}

// ApplyProfile overwrites display fields only.
func (p Player) ApplyProfile(profile Profile) Player {
	if name := strings.TrimSpace(profile.Name); name != "" {
		p.Name = name
	}
	p.AvatarURL = profile.AvatarURL
	p.RankTier = profile.RankTier
	p.Wins = profile.Wins
	p.Losses = profile.Losses
	p.TopHeroes = append([]HeroStat(nil), profile.TopHeroes...)
	return p
}

func ValidateAccountID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("account id is required")
	}
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil || v == 0 {
		return fmt.Errorf("account id %q must be a positive integer", id)
	}
	return nil
}
