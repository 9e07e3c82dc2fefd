/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

// EventType names a state change emitted by the session.
type EventType string

const (
	EventPlayerAdded             EventType = "playerAdded"
	EventPlayerNameSet           EventType = "playerNameSet"
	EventPlayerFontSet           EventType = "playerFontSet"
	EventPlayerLeft              EventType = "playerLeft"
	EventPlayerRemoved           EventType = "playerRemoved"
	EventMasterChanged           EventType = "masterChanged"
	EventEntriesPerPlayerUpdated EventType = "entriesPerPlayerUpdated"
	EventPlayerReady             EventType = "playerReady"
	EventTeamAdded               EventType = "teamAdded"
	EventPlayerAddedToTeam       EventType = "playerAddedToTeam"
	EventTeamRemoved             EventType = "teamRemoved"
	EventTurnTimeUpdated         EventType = "turnTimeUpdated"
	EventScorePerEntryUpdated    EventType = "scorePerEntryUpdated"
	EventStarted                 EventType = "started"
	EventRoundStarted            EventType = "roundStarted"
	EventTurnStarted             EventType = "turnStarted"
	EventTicked                  EventType = "ticked"
	EventNextEntry               EventType = "nextEntry"
	EventTurnFinished            EventType = "turnFinished"
	EventNextTurn                EventType = "nextTurn"
	EventRoundFinished           EventType = "roundFinished"
	EventNextRound               EventType = "nextRound"
	EventFinished                EventType = "finished"
	EventTeamScored              EventType = "teamScored"
)

// Event is one emitted state change. Only the fields relevant to Type are set.
type Event struct {
	Type     EventType `json:"type"`
	PlayerID string    `json:"playerId,omitempty"`
	TeamID   string    `json:"teamId,omitempty"`
	Name     string    `json:"name,omitempty"`
	Value    int       `json:"value,omitempty"`
	Ready    bool      `json:"ready,omitempty"`
}
