// Package inspector implements only the WASM host-function boundary used to
// simulate deployed contract bytecode (spec §5: "a pure function (bytecode,
// config) → InspectionResult"). It does not interpret opcodes or evaluate
// WASM for consensus (spec Non-goals: "does not evaluate WASM for
// consensus — only composes and parses the wire artifacts"); it exists so a
// caller can observe what a contract's entry point would read, write, log,
// and call before ever broadcasting a reveal transaction.
package inspector

import (
	"errors"
	"sync"

	"github.com/wasmerio/wasmer-go/wasmer"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/model"
	"alkanes-core/core/varint"
)

// HostEnv is the capability surface a simulated contract is given: storage
// get/set, a balance query, a call to another contract, and a log sink
// (spec §5). One instance backs exactly one Inspect call; its state never
// survives past that call.
type HostEnv interface {
	Get(key []byte) ([]byte, bool)
	Set(key, value []byte)
	Balance(id model.AlkaneId) varint.Uint128
	Call(id model.AlkaneId, inputs []varint.Uint128) ([]byte, error)
	Log(msg []byte)
}

// memEnv is the default HostEnv: an in-memory K/V map and host-call log
// guarded by a mutex, created fresh per inspect call (spec §4's "Global
// state" note: "constrained to one inspector instance, created per inspect
// call").
type memEnv struct {
	mu sync.Mutex

	data     map[string][]byte
	balances map[model.AlkaneId]varint.Uint128
	calls    func(id model.AlkaneId, inputs []varint.Uint128) ([]byte, error)
	hostLog  []HostCall
}

func newMemEnv(balances map[model.AlkaneId]varint.Uint128, callHook func(model.AlkaneId, []varint.Uint128) ([]byte, error)) *memEnv {
	return &memEnv{
		data:     make(map[string][]byte),
		balances: balances,
		calls:    callHook,
	}
}

func (e *memEnv) Get(key []byte) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.data[string(key)]
	return v, ok
}

func (e *memEnv) Set(key, value []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[string(key)] = append([]byte(nil), value...)
}

func (e *memEnv) Balance(id model.AlkaneId) varint.Uint128 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances[id]
}

func (e *memEnv) Call(id model.AlkaneId, inputs []varint.Uint128) ([]byte, error) {
	if e.calls == nil {
		return nil, alkerrors.New(alkerrors.Validation, "inspector: no call hook configured for nested calls")
	}
	return e.calls(id, inputs)
}

func (e *memEnv) Log(msg []byte) {
	e.record("host_log", msg)
}

// record appends a host-call entry, for the caller to audit after Inspect
// returns (spec §4: "host-call log").
func (e *memEnv) record(name string, args []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hostLog = append(e.hostLog, HostCall{Name: name, Args: append([]byte(nil), args...)})
}

// HostCall records one host-boundary crossing a simulated contract made,
// for the caller to inspect after the run (spec §4: "host-call log").
type HostCall struct {
	Name string
	Args []byte
}

// Config parameterizes one Inspect call.
type Config struct {
	// EntryPoint is the exported WASM function invoked with no arguments;
	// defaults to "_start".
	EntryPoint string
	// Balances seeds the simulated alkanes balances a contract may query
	// via host_balance.
	Balances map[model.AlkaneId]varint.Uint128
	// Call, if set, lets a simulated contract's host_call reach another
	// contract's bytecode; nil means nested calls fail closed.
	Call func(id model.AlkaneId, inputs []varint.Uint128) ([]byte, error)
}

// InspectionResult is the outcome of one Inspect call (spec §5).
type InspectionResult struct {
	Status    bool
	Error     string
	HostCalls []HostCall
	Storage   map[string][]byte
}

// Inspect instantiates bytecode as a WASM module, wires the host-function
// imports under the "env" namespace, and runs config.EntryPoint to
// completion, returning everything it did at the host boundary. bytecode is
// expected already gzip-decompressed (core/envelope.Decompress); Inspect
// does not itself touch the envelope framing (spec §5 scope: "only
// composes and parses the wire artifacts").
func Inspect(bytecode []byte, config Config) (*InspectionResult, error) {
	entry := config.EntryPoint
	if entry == "" {
		entry = "_start"
	}

	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.NewModule(store, bytecode)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Validation, err, "inspector: compile wasm module")
	}

	env := newMemEnv(config.Balances, config.Call)
	hctx := &hostCtx{env: env}
	imports := registerHost(store, hctx)

	instance, err := wasmer.NewInstance(module, imports)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Validation, err, "inspector: instantiate wasm module")
	}

	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, alkerrors.New(alkerrors.Validation, "inspector: module exports no linear memory")
	}
	hctx.mem = mem

	start, err := instance.Exports.GetFunction(entry)
	if err != nil {
		return nil, alkerrors.Wrap(alkerrors.Validation, err, "inspector: resolve entry point %q", entry)
	}

	result := &InspectionResult{Status: true, Storage: env.data}
	if _, err := start(); err != nil {
		result.Status = false
		result.Error = err.Error()
	}
	result.HostCalls = env.hostLog
	return result, nil
}

// hostCtx is the closure state every registered host function shares,
// grounded on core/virtual_machine.go's hostCtx.
type hostCtx struct {
	mem *wasmer.Memory
	env *memEnv
}

func (h *hostCtx) read(ptr, size int32) ([]byte, error) {
	data := h.mem.Data()
	end := int(ptr) + int(size)
	if ptr < 0 || size < 0 || end > len(data) {
		return nil, errors.New("inspector: out-of-bounds memory read")
	}
	out := make([]byte, size)
	copy(out, data[ptr:end])
	return out, nil
}

func (h *hostCtx) write(ptr int32, value []byte) error {
	data := h.mem.Data()
	end := int(ptr) + len(value)
	if ptr < 0 || end > len(data) {
		return errors.New("inspector: out-of-bounds memory write")
	}
	copy(data[ptr:end], value)
	return nil
}

// registerHost exposes HostEnv to the module under the "env" namespace:
// host_get, host_set, host_balance, host_call, host_log (spec §5).
func registerHost(store *wasmer.Store, h *hostCtx) *wasmer.ImportObject {
	imports := wasmer.NewImportObject()

	i32k := wasmer.ValueKind(wasmer.I32)
	i64k := wasmer.ValueKind(wasmer.I64)
	i32 := wasmer.NewValueTypes(i32k)
	i32i32 := wasmer.NewValueTypes(i32k, i32k)
	i32x3 := wasmer.NewValueTypes(i32k, i32k, i32k)
	i32x4 := wasmer.NewValueTypes(i32k, i32k, i32k, i32k)
	// an AlkaneId is (block, tx), each passed as a pair of i64 halves
	// (hi, lo) so host_balance/host_call never need to round-trip through
	// WASM linear memory for a 16-byte key.
	idArgs := wasmer.NewValueTypes(i64k, i64k, i64k, i64k)
	idArgsDst := wasmer.NewValueTypes(i64k, i64k, i64k, i64k, i32k)
	none := wasmer.NewValueTypes()

	hostGet := wasmer.NewFunction(store, wasmer.NewFunctionType(i32x3, i32),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			keyPtr, keyLen, dstPtr := args[0].I32(), args[1].I32(), args[2].I32()
			key, err := h.read(keyPtr, keyLen)
			if err != nil {
				return nil, err
			}
			val, ok := h.env.Get(key)
			h.env.record("host_get", key)
			if !ok {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			if err := h.write(dstPtr, val); err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI32(int32(len(val)))}, nil
		},
	)

	hostSet := wasmer.NewFunction(store, wasmer.NewFunctionType(i32x4, i32),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			keyPtr, keyLen, valPtr, valLen := args[0].I32(), args[1].I32(), args[2].I32(), args[3].I32()
			key, err := h.read(keyPtr, keyLen)
			if err != nil {
				return nil, err
			}
			val, err := h.read(valPtr, valLen)
			if err != nil {
				return nil, err
			}
			h.env.Set(key, val)
			h.env.record("host_set", key)
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		},
	)

	hostBalance := wasmer.NewFunction(store, wasmer.NewFunctionType(idArgs, i32),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			id := alkaneIDFromArgs(args)
			bal := h.env.Balance(id)
			h.env.record("host_balance", nil)
			return []wasmer.Value{wasmer.NewI32(int32(bal.Lo))}, nil
		},
	)

	hostCall := wasmer.NewFunction(store, wasmer.NewFunctionType(idArgsDst, i32),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			id := alkaneIDFromArgs(args)
			dstPtr := args[4].I32()
			out, err := h.env.Call(id, nil)
			h.env.record("host_call", nil)
			if err != nil {
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			if err := h.write(dstPtr, out); err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI32(int32(len(out)))}, nil
		},
	)

	hostLog := wasmer.NewFunction(store, wasmer.NewFunctionType(i32i32, none),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			ptr, size := args[0].I32(), args[1].I32()
			msg, err := h.read(ptr, size)
			if err != nil {
				return nil, err
			}
			h.env.Log(msg)
			return []wasmer.Value{}, nil
		},
	)

	imports.Register("env", map[string]wasmer.IntoExtern{
		"host_get":     hostGet,
		"host_set":     hostSet,
		"host_balance": hostBalance,
		"host_call":    hostCall,
		"host_log":     hostLog,
	})
	return imports
}

// alkaneIDFromArgs reconstructs an AlkaneId from the (blockHi, blockLo,
// txHi, txLo) i64 quadruple host_balance/host_call receive.
func alkaneIDFromArgs(args []wasmer.Value) model.AlkaneId {
	return model.AlkaneId{
		Block: varint.Uint128{Hi: uint64(args[0].I64()), Lo: uint64(args[1].I64())},
		Tx:    varint.Uint128{Hi: uint64(args[2].I64()), Lo: uint64(args[3].I64())},
	}
}
