package proto

// Operation names understood by the worker
const (
	OP_QUIT                            = "quit"
	OP_LOGIN                           = "login"
	OP_ENTER_BATTLE                    = "enter_battle"
	OP_ENTER_LOBBY                     = "enter_lobby"
	OP_NOTIFICATION_CENTER_HAS_MESSAGE = "notification_center_has_message"
	OP_GET_LOGS                        = "get_logs"
	OP_ADD_PLAYER                      = "add_player"
	OP_GET_PLAYER_ID                   = "get_player_id"
	OP_IS_PLAYER_SPEAKING              = "is_player_speaking"
	OP_IS_PLAYER_NOT_SPEAKING          = "is_player_not_speaking"
	OP_WAIT_FOR_LOG                    = "wait_for_log"
	OP_RELOAD_INI_FILE                 = "reload_ini_file"
	OP_SET_SETTING                     = "set_setting"
	OP_PING                            = "ping"
	OP_ECHO                            = "echo"
	OP_SUM                             = "sum"
	OP_RAISE_ERROR                     = "raise_error"
	OP_PANIC                           = "panic"
)

// Call is sent from the controller to the worker, one per remote call
type Call struct {
	Seq    uint64
	Method string
	Args   []interface{}
	Kwargs map[string]interface{}
}

// Result is sent from the worker to the controller, exactly one per received Call
type Result struct {
	Seq   uint64
	Value interface{}
	Error *RemoteError
}

// Failed returns true if the call did not succeed
func (r *Result) Failed() bool {
	return r.Error != nil
}
