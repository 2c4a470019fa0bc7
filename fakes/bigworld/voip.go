package bigworld

// VOIPManager keeps the talking state of players, by account database id
type VOIPManager struct {
	talking map[int64]bool
}

func newVOIPManager() *VOIPManager {
	return &VOIPManager{talking: map[int64]bool{}}
}

// SetParticipantTalking sets the talking state of a player
func (vm *VOIPManager) SetParticipantTalking(dbid int64, talking bool) {
	if talking {
		vm.talking[dbid] = true
	} else {
		delete(vm.talking, dbid)
	}
}

// IsParticipantTalking returns if a player is talking
func (vm *VOIPManager) IsParticipantTalking(dbid int64) bool {
	return vm.talking[dbid]
}

// TalkingParticipants returns the ids of all talking players
func (vm *VOIPManager) TalkingParticipants() []int64 {
	ids := make([]int64, 0, len(vm.talking))
	for dbid := range vm.talking {
		ids = append(ids, dbid)
	}
	return ids
}
