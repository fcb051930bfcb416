package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/google/go-cmp/cmp"
	"github.com/lni/dragonboat/v4/logger"
)

func TestMessageTypeJSON(t *testing.T) {
	types := []MessageType{
		MsgTUnknown, MsgTSuccess, MsgTError, MsgTUpdate, MsgTGet,
		MsgTFind, MsgTLoadOutsourced, MsgTSaveOutsourced, MsgTInfo,
	}
	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			data, err := json.Marshal(typ)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(data) != fmt.Sprintf("%q", typ.String()) {
				t.Errorf("expected string encoding, got %s", data)
			}
			var decoded MessageType
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if decoded != typ {
				t.Errorf("expected %v, got %v", typ, decoded)
			}
		})
	}

	var decoded MessageType
	if err := json.Unmarshal([]byte(`"setE"`), &decoded); err == nil {
		t.Error("expected error for unknown message type")
	}
}

func TestErrorResponseKeepsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code store.RetCode
		msg  string
	}{
		{"store error", store.NewError(store.RetCEntityNotFound, "entity u1 not found"), store.RetCEntityNotFound, "entity u1 not found"},
		{"wrapped store error", fmt.Errorf("get: %w", store.ErrStoreLocked), store.RetCStoreLocked, "store locked"},
		{"plain error", errors.New("disk full"), store.RetCInternalError, "disk full"},
		{"error with cause", store.WrapError(store.RetCCorruptEntityFile, errors.New("eof"), "bad file"), store.RetCCorruptEntityFile, "bad file: eof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewErrorResponse(tt.err)
			if msg.Code != uint64(tt.code) {
				t.Errorf("expected code %d, got %d", tt.code, msg.Code)
			}

			// simulate the wire
			data, err := json.Marshal(msg)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			var decoded Message
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}

			restored := decoded.AsError()
			if store.CodeOf(restored) != tt.code {
				t.Errorf("expected restored code %v, got %v", tt.code, store.CodeOf(restored))
			}
			if !strings.Contains(restored.Error(), tt.msg) {
				t.Errorf("expected %q in %q", tt.msg, restored.Error())
			}
		})
	}
}

func TestAsErrorWithoutError(t *testing.T) {
	if err := NewUpdateResponse(nil).AsError(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	var msg *Message
	if err := msg.AsError(); err != nil {
		t.Errorf("expected nil error for nil message, got %v", err)
	}
	if err := (&Message{MsgType: MsgTError}).AsError(); !errors.Is(err, store.ErrInternal) {
		t.Errorf("expected internal error for error message without code, got %v", err)
	}
}

func TestUpdateRequest(t *testing.T) {
	saved := []map[string]string{{"id": "u1", "@type": "User", "name": "Ann"}}
	msg := NewUpdateRequest(saved, []string{"u2"}, map[string][]string{"u1": {"name"}})

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(msg, &decoded); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShardType(t *testing.T) {
	tests := []struct {
		in      string
		want    ServerShardType
		wantErr bool
	}{
		{"file", ShardTypeFileStore, false},
		{"Memory", ShardTypeMemoryStore, false},
		{"mem", ShardTypeMemoryStore, false},
		{"file store", ShardTypeFileStore, false},
		{"raft", "", true},
	}
	for _, tt := range tests {
		got, err := ParseShardType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseShardType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseShardType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigString(t *testing.T) {
	config := ServerConfig{
		Shards: []ServerShard{
			{ShardID: 1, Type: ShardTypeFileStore},
			{ShardID: 2, Type: ShardTypeMemoryStore},
		},
		DataDir:       "/tmp/dentity",
		StoreVersion:  3,
		EntityFormat:  "json",
		Types:         "User,Project=proj",
		TimeoutSecond: 5,
		Endpoint:      ":8080",
		LogLevel:      "info",
	}

	out := config.String()
	for _, want := range []string{"file store", "memory store", "/tmp/dentity", "User,Project=proj", ":8080"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in config dump:\n%s", want, out)
		}
	}
	if dir := config.ShardDir(1); !strings.HasSuffix(dir, "1") {
		t.Errorf("unexpected shard dir %q", dir)
	}

	client := ClientConfig{Endpoints: []string{"localhost:8080"}, TimeoutSecond: 5, RetryCount: 2}
	if out := client.String(); !strings.Contains(out, "localhost:8080") {
		t.Errorf("expected endpoint in client config dump:\n%s", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug": logger.DEBUG,
		"INFO":  logger.INFO,
		"":      logger.INFO,
		"warn":  logger.WARNING,
		"error": logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("expected error for invalid log level")
	}
	if err := InitLoggers("verbose"); err == nil {
		t.Error("expected InitLoggers to reject invalid log level")
	}
}
