// Package service is the worker side of the harness: it executes the calls of the controller against
// the fake game client, one call per engine tick.
package service

import (
	"reflect"
	"sort"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwutils"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/opmon"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/proto"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/settings"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/bigworld"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// CallSource is where calls come from, usually a *netutil.RecvChannel
type CallSource interface {
	TryRecv(msg interface{}) (bool, error)
	Closed() bool
}

// ResultSink is where results go, usually a *netutil.SendChannel
type ResultSink interface {
	Send(msg interface{}) error
}

// GameService dispatches calls to the registered operations
type GameService struct {
	in       CallSource
	out      ResultSink
	ops      opDescMap
	quitting xnsyncutil.AtomicBool
	numCalls int
}

// NewGameService creates a GameService with the standard operations registered
func NewGameService(in CallSource, out ResultSink, engine *bigworld.Engine, store *settings.Store, cfg *config.WorkerConfig) *GameService {
	gs := newGameService(in, out)
	gs.Register(NewOperations(gs, engine, store, cfg))
	return gs
}

func newGameService(in CallSource, out ResultSink) *GameService {
	return &GameService{
		in:  in,
		out: out,
		ops: opDescMap{},
	}
}

func (gs *GameService) String() string {
	return "GameService"
}

// Register registers every exported method of ops as an operation under its snake_case name.
// Parameter names and defaults come from ops.OperationParams, if ops implements ParamDeclarer
func (gs *GameService) Register(ops interface{}) {
	var params map[string][]Param
	if pd, ok := ops.(ParamDeclarer); ok {
		params = pd.OperationParams()
	}

	val := reflect.ValueOf(ops)
	typ := val.Type()
	for i := 0; i < typ.NumMethod(); i++ {
		method := typ.Method(i)
		if method.Name == "OperationParams" || method.Name == "String" {
			continue
		}
		gs.ops.visit(method, val.Method(i), params)
	}

	for name := range params {
		if gs.ops[name] == nil {
			gwlog.Fatalf("%s: parameters declared for missing operation %s", gs, name)
		}
	}
}

// Operations returns the names of the registered operations, sorted
func (gs *GameService) Operations() []string {
	names := make([]string, 0, len(gs.ops))
	for name := range gs.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Quit makes Tick return false
func (gs *GameService) Quit() {
	gs.quitting.Store(true)
}

// Quitting returns true once quit was requested
func (gs *GameService) Quitting() bool {
	return gs.quitting.Load()
}

// NumCalls returns the number of handled calls
func (gs *GameService) NumCalls() int {
	return gs.numCalls
}

// Tick handles at most one queued call. It returns false when the worker should stop: after quit,
// or when the controller closed its end of the pipe
func (gs *GameService) Tick() bool {
	if gs.quitting.Load() {
		return false
	}

	closed := gs.in.Closed()
	var call proto.Call
	ok, err := gs.in.TryRecv(&call)
	if err != nil {
		// Seq stays 0 when the frame broke before it, the controller applies that to its pending call
		gwlog.TraceError("%s: bad call #%d received: %v", gs, call.Seq, err)
		gs.sendResult(&proto.Result{Seq: call.Seq, Error: proto.NewError(proto.OperationFailed, "bad call: %v", err)})
		return true
	}
	if !ok {
		if closed {
			gwlog.Warnf("%s: controller closed the call pipe, quitting", gs)
			gs.Quit()
			return false
		}
		return true
	}

	result := gs.Handle(&call)
	if err := gs.out.Send(result); err != nil {
		gwlog.Errorf("%s: send result of %s failed: %v", gs, call.Method, err)
		gs.sendResult(&proto.Result{
			Seq:   call.Seq,
			Error: proto.NewError(proto.OperationFailed, "%s returned a value which can not be sent: %v", call.Method, err),
		})
	}
	return !gs.quitting.Load()
}

func (gs *GameService) sendResult(result *proto.Result) {
	if err := gs.out.Send(result); err != nil {
		gwlog.Errorf("%s: send result #%d failed: %v", gs, result.Seq, err)
	}
}

// Handle executes one call and returns its result. It never panics
func (gs *GameService) Handle(call *proto.Call) *proto.Result {
	gs.numCalls++
	if consts.DEBUG_CALLS {
		gwlog.Debugf("%s: call #%d %s%v %v", gs, call.Seq, call.Method, call.Args, call.Kwargs)
	}

	result := &proto.Result{Seq: call.Seq}
	desc := gs.ops[call.Method]
	if desc == nil {
		gwlog.Errorf("%s: operation %s is not defined, args=%v", gs, call.Method, call.Args)
		result.Error = proto.NewError(proto.UnknownOperation, "operation %s is not defined", call.Method)
		return result
	}

	op := opmon.StartOperation("service." + call.Method)
	defer op.Finish(consts.OPMON_WARN_THRESHOLD)

	var value interface{}
	err := gwutils.CatchPanic(func() error {
		var err error
		value, err = desc.call(call.Args, call.Kwargs)
		return err
	})
	if err != nil {
		result.Error = proto.FromError(err)
		gwlog.Errorf("%s: %s failed: %s\n%s", gs, call.Method, result.Error.Message, result.Error.Trace)
		return result
	}

	result.Value = value
	if consts.DEBUG_CALLS {
		gwlog.Debugf("%s: call #%d %s => %v", gs, call.Seq, call.Method, value)
	}
	return result
}
