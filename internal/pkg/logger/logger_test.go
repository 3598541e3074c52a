package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"private_key", "0xabc", "network", "mainnet", "etherscan_api_key", "k"})
	if got := out[1]; got != "[REDACTED]" {
		t.Fatalf("private_key: want=%q got=%v", "[REDACTED]", got)
	}
	if got := out[3]; got != "mainnet" {
		t.Fatalf("network: want=%q got=%v", "mainnet", got)
	}
	if got := out[5]; got != "[REDACTED]" {
		t.Fatalf("api key: want=%q got=%v", "[REDACTED]", got)
	}
}

func TestSanitizeKVsStripsURLQuery(t *testing.T) {
	out := sanitizeKVs([]interface{}{"rpc_url", "https://rpc.example.org/v1?key=abc"})
	want := "https://rpc.example.org/v1?[REDACTED]"
	if got := out[1]; got != want {
		t.Fatalf("rpc_url: want=%q got=%v", want, got)
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"kind", "voting", "dangling"})
	if len(out) != 3 {
		t.Fatalf("len: want=3 got=%d", len(out))
	}
}
