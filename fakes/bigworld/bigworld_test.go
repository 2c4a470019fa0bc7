package bigworld

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestAddPlayerInBattle(t *testing.T) {
	e := New()
	defer e.Close()

	_, err := e.AddPlayer("Alice")
	assert.NotEqual(t, nil, err)

	e.SetPlayer(NewAvatar())
	dbid, err := e.AddPlayer("Alice")
	assert.Equal(t, nil, err)

	found, ok := e.PlayerDBID("Alice")
	assert.T(t, ok, "Alice should be in the arena")
	assert.Equal(t, dbid, found)

	_, ok = e.PlayerDBID("Bob")
	assert.T(t, !ok, "Bob should not be found")
}

func TestAddPlayerInLobby(t *testing.T) {
	e := New()
	defer e.Close()

	e.SetPlayer(NewAccount())
	dbidA, _ := e.AddPlayer("Alice")
	dbidB, _ := e.AddPlayer("Bob")
	assert.NotEqual(t, dbidA, dbidB)
	assert.Equal(t, 2, len(e.Players()))

	found, ok := e.PlayerDBID("Bob")
	assert.T(t, ok, "Bob should be in the roster")
	assert.Equal(t, dbidB, found)
}

func TestPlayerChangedListeners(t *testing.T) {
	e := New()
	var seen []string
	e.OnPlayerChanged(func(p Player) { seen = append(seen, p.String()) })
	e.SetPlayer(NewAccount())
	e.SetPlayer(NewAvatar())
	assert.Equal(t, []string{"Account", "Avatar"}, seen)
}

func TestCallbacks(t *testing.T) {
	e := New()
	defer e.Close()

	fired := 0
	e.Callback(0, func() { fired++ })
	canceled := e.Callback(0, func() { fired += 100 })
	e.CancelCallback(canceled)

	for i := 0; i < 3; i++ {
		time.Sleep(time.Millisecond)
		e.Tick()
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, 3, e.Ticks())
}

func TestMessagesAndLogs(t *testing.T) {
	e := New()
	e.SystemMessages().Push("Connected to TeamSpeak client")
	assert.T(t, e.SystemMessages().Has("Connected to TeamSpeak client"), "message should be shown")
	assert.T(t, !e.SystemMessages().Has("Connected"), "only exact messages match")

	e.Logs().Note("hello")
	e.Logs().Error("world")
	assert.Equal(t, 2, e.Logs().Len())
	assert.Equal(t, LogEntry{Level: LOG_ERROR, Message: "world"}, e.Logs().At(1))
}

func TestVOIP(t *testing.T) {
	vm := New().VOIP()
	vm.SetParticipantTalking(42, true)
	assert.T(t, vm.IsParticipantTalking(42), "should be talking")
	assert.Equal(t, []int64{42}, vm.TalkingParticipants())
	vm.SetParticipantTalking(42, false)
	assert.T(t, !vm.IsParticipantTalking(42), "should not be talking")
}
