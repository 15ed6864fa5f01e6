package inspector

import (
	"testing"

	"alkanes-core/core/model"
	"alkanes-core/core/varint"
)

func TestMemEnvGetSetRoundTrip(t *testing.T) {
	env := newMemEnv(nil, nil)
	if _, ok := env.Get([]byte("missing")); ok {
		t.Fatal("expected missing key to report not-found")
	}
	env.Set([]byte("k"), []byte("v"))
	v, ok := env.Get([]byte("k"))
	if !ok || string(v) != "v" {
		t.Fatalf("got (%q, %v), want (\"v\", true)", v, ok)
	}
}

func TestMemEnvBalance(t *testing.T) {
	id := model.AlkaneId{Block: varint.FromUint64(2), Tx: varint.FromUint64(5)}
	env := newMemEnv(map[model.AlkaneId]varint.Uint128{id: varint.FromUint64(1000)}, nil)
	got := env.Balance(id)
	if got.Lo != 1000 {
		t.Fatalf("got balance %v, want 1000", got)
	}
	other := model.AlkaneId{Block: varint.FromUint64(9)}
	if !env.Balance(other).IsZero() {
		t.Fatal("expected zero balance for unseeded id")
	}
}

func TestMemEnvCallWithoutHookFailsClosed(t *testing.T) {
	env := newMemEnv(nil, nil)
	_, err := env.Call(model.AlkaneId{}, nil)
	if err == nil {
		t.Fatal("expected nested call without a hook to fail")
	}
}

func TestMemEnvLogRecordsHostCall(t *testing.T) {
	env := newMemEnv(nil, nil)
	env.Log([]byte("hello"))
	if len(env.hostLog) != 1 || env.hostLog[0].Name != "host_log" {
		t.Fatalf("got %+v, want a single host_log entry", env.hostLog)
	}
}

// helloWasmModule is a hand-assembled minimal WASM module: it imports
// env.host_log(i32,i32), exports a 1-page memory and a _start function that
// calls host_log(0, 0), and nothing else. It exists purely to exercise
// Inspect's instantiation and host-import wiring end to end, not to model
// any real contract bytecode.
var helloWasmModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic "\0asm"
	0x01, 0x00, 0x00, 0x00, // version 1

	// type section: type0 () -> (), type1 (i32,i32) -> ()
	0x01, 0x09, 0x02,
	0x60, 0x00, 0x00,
	0x60, 0x02, 0x7f, 0x7f, 0x00,

	// import section: func "env"."host_log" : type1
	0x02, 0x10, 0x01,
	0x03, 0x65, 0x6e, 0x76, // "env"
	0x08, 0x68, 0x6f, 0x73, 0x74, 0x5f, 0x6c, 0x6f, 0x67, // "host_log"
	0x00, 0x01,

	// function section: local func0 : type0
	0x03, 0x02, 0x01, 0x00,

	// memory section: 1 memory, min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,

	// export section: "_start" func 1, "memory" mem 0
	0x07, 0x13, 0x02,
	0x06, 0x5f, 0x73, 0x74, 0x61, 0x72, 0x74, 0x00, 0x01, // "_start"
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, // "memory"

	// code section: func1 body = i32.const 0, i32.const 0, call 0, end
	0x0a, 0x0a, 0x01,
	0x08, 0x00, 0x41, 0x00, 0x41, 0x00, 0x10, 0x00, 0x0b,
}

func TestInspectRunsEntryPointAndRecordsHostCalls(t *testing.T) {
	result, err := Inspect(helloWasmModule, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Status {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	var sawLog bool
	for _, c := range result.HostCalls {
		if c.Name == "host_log" {
			sawLog = true
		}
	}
	if !sawLog {
		t.Fatalf("expected a host_log call, got %+v", result.HostCalls)
	}
}

func TestInspectRejectsMissingEntryPoint(t *testing.T) {
	_, err := Inspect(helloWasmModule, Config{EntryPoint: "does_not_exist"})
	if err == nil {
		t.Fatal("expected an error for a missing entry point")
	}
}
