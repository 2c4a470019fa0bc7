package bigworld

import "fmt"

// Player is the entity BigWorld.player() returns: an *Account in the garage, an *Avatar in battle
type Player interface {
	fmt.Stringer
}

// Account is the player entity in the garage/lobby
type Account struct {
	Prebattle *Prebattle
}

// NewAccount creates an Account with one empty roster
func NewAccount() *Account {
	return &Account{
		Prebattle: &Prebattle{Rosters: map[int]map[int]RosterEntry{0: {}}},
	}
}

func (a *Account) String() string {
	return "Account"
}

// Prebattle holds the rosters of a platoon or training room
type Prebattle struct {
	Rosters map[int]map[int]RosterEntry
}

// RosterEntry is one player of a roster
type RosterEntry struct {
	Name string
	DBID int64
}

func (pb *Prebattle) addRoster(name string, dbid int64) {
	roster := pb.Rosters[0]
	roster[len(roster)] = RosterEntry{Name: name, DBID: dbid}
}

// Avatar is the player entity in battle
type Avatar struct {
	Arena *Arena
}

// NewAvatar creates an Avatar in an empty arena
func NewAvatar() *Avatar {
	return &Avatar{
		Arena: &Arena{Vehicles: map[int]Vehicle{}},
	}
}

func (a *Avatar) String() string {
	return "Avatar"
}

// Arena holds the vehicles of the battle, by vehicle id
type Arena struct {
	Vehicles map[int]Vehicle
}

// Vehicle is one player of the battle
type Vehicle struct {
	AccountDBID int64
	Name        string
	IsAlive     bool
}

func (a *Arena) addVehicle(vehicleID int, name string, dbid int64) {
	a.Vehicles[vehicleID] = Vehicle{AccountDBID: dbid, Name: name, IsAlive: true}
}
