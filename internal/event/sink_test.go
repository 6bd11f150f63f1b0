package event

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmitterSequencesEvents(t *testing.T) {
	sink := NewMemorySink()
	emitter := NewEmitter(nil, sink)
	emitter.now = func() time.Time { return time.Unix(1700000000, 0) }

	emitter.Emit(NameTokenCreated, TokenCreatedData{Token: "0x01", Symbol: "AAA"})
	emitter.Emit(NameTradeExecuted, TradeExecutedData{AmountIn: "100", AmountOut: "99"})

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Sequence != 1 || events[1].Sequence != 2 {
		t.Fatalf("sequences = (%d, %d)", events[0].Sequence, events[1].Sequence)
	}
	if events[0].Timestamp != 1700000000 {
		t.Fatalf("timestamp = %d", events[0].Timestamp)
	}
	if events[0].Name != NameTokenCreated {
		t.Fatalf("name = %q", events[0].Name)
	}

	named := sink.Named(NameTradeExecuted)
	if len(named) != 1 {
		t.Fatalf("got %d trade events, want 1", len(named))
	}
}

func TestJSONLSinkAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	sink := NewJSONLSink(path)
	emitter := NewEmitter(nil, sink)

	emitter.Emit(NamePoolCreated, PoolCreatedData{Pair: "0xab", AssetA: "0x01", AssetB: "0x02"})
	emitter.Emit(NameLiquidityAdded, LiquidityAddedData{Pair: "0xab", AmountA: "10", AmountB: "20", Shares: "100"})

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != NamePoolCreated || records[1].Name != NameLiquidityAdded {
		t.Fatalf("names = (%q, %q)", records[0].Name, records[1].Name)
	}

	var added LiquidityAddedData
	if err := json.Unmarshal(records[1].Payload, &added); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if added.Shares != "100" {
		t.Fatalf("shares = %q", added.Shares)
	}
}

func TestEmitterSurvivesSinkFailure(t *testing.T) {
	// A sink pointed at an unwritable path must not break emission to
	// the sinks after it.
	bad := NewJSONLSink(filepath.Join(t.TempDir(), "file", "nested.jsonl"))
	if err := os.WriteFile(filepath.Dir(bad.path), []byte("x"), 0o644); err != nil {
		t.Fatalf("prepare blocking file: %v", err)
	}
	good := NewMemorySink()
	emitter := NewEmitter(nil, bad, good)

	emitter.Emit(NameFeesCollected, FeesCollectedData{PositionID: 7, AmountA: "1", AmountB: "2"})

	if got := len(good.Events()); got != 1 {
		t.Fatalf("good sink received %d events, want 1", got)
	}
}
