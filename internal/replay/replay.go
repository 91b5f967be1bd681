// Package replay defines the match-source decoding contract. The binary
// replay container is decoded elsewhere; this package consumes the extracted
// metadata document and turns it into a structured result.
package replay

import (
	"fmt"
	"os"
	"strings"
	"time"

	"ladder-tracker/internal/miniyaml"
)

// Extension marks candidate match sources on disk.
const Extension = ".orarep"

const timeLayout = "2006-01-02 15-04-05"

// PlayerInfo is one participant as recorded in the source metadata.
type PlayerInfo struct {
	Fingerprint     string
	DisplayName     string
	Faction         string
	SelectedFaction string
}

// Result is a decoded match record. Player0 is the winner.
type Result struct {
	Filename  string
	Mod       string
	StartTime time.Time
	EndTime   time.Time
	MapUID    string
	MapTitle  string
	Player0   PlayerInfo
	Player1   PlayerInfo
}

// DecodeError wraps any malformed-source failure so callers can distinguish
// corruption from downstream errors.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder produces a structured match record from a source path.
type Decoder interface {
	Decode(path string) (*Result, error)
}

// MetadataDecoder reads the miniyaml metadata document of a match source:
// a Root block with timestamps, map and mod, plus one Player@N block per
// participant carrying fingerprint, factions and outcome.
type MetadataDecoder struct{}

func NewMetadataDecoder() *MetadataDecoder {
	return &MetadataDecoder{}
}

func (d *MetadataDecoder) Decode(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	nodes, err := miniyaml.Parse(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	root := miniyaml.Root(nodes, "Root")
	if root == nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("missing Root block")}
	}

	res := &Result{
		Filename: path,
		Mod:      root.Get("Mod"),
		MapUID:   root.Get("MapUid"),
		MapTitle: root.Get("MapTitle"),
	}
	if res.StartTime, err = time.Parse(timeLayout, root.Get("StartTimeUtc")); err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("bad StartTimeUtc: %w", err)}
	}
	if res.EndTime, err = time.Parse(timeLayout, root.Get("EndTimeUtc")); err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("bad EndTimeUtc: %w", err)}
	}

	var winner, loser *PlayerInfo
	players := 0
	for _, n := range nodes {
		if !strings.HasPrefix(n.Key, "Player@") {
			continue
		}
		players++
		info := PlayerInfo{
			Fingerprint:     n.Get("Fingerprint"),
			DisplayName:     n.Get("Name"),
			Faction:         n.Get("FactionName"),
			SelectedFaction: n.Get("SelectedFactionName"),
		}
		if info.SelectedFaction == "" {
			info.SelectedFaction = info.Faction
		}
		if info.Fingerprint == "" {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("%s has no fingerprint", n.Key)}
		}
		switch n.Get("Outcome") {
		case "Won":
			w := info
			winner = &w
		default:
			l := info
			loser = &l
		}
	}

	if players != 2 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("expected 2 players, got %d", players)}
	}
	if winner == nil || loser == nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("no decisive outcome")}
	}

	res.Player0 = *winner
	res.Player1 = *loser
	return res, nil
}
