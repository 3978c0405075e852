package registry

import (
	"sort"
	"testing"
)

func TestTokenExempt(t *testing.T) {
	for name := range commands {
		exempt := IsTokenExempt(name)
		want := name == "ping" || name == "auth_info"
		if exempt != want {
			t.Errorf("%s: token_exempt=%v, want %v", name, exempt, want)
		}
	}
}

func TestLookupTier(t *testing.T) {
	cases := map[string]Tier{
		"ping":         TierObserve,
		"screenshot":   TierObserve,
		"click":        TierInput,
		"set_property": TierControl,
		"eval":         TierDanger,
	}
	for name, want := range cases {
		if got := LookupTier(name); got != want {
			t.Errorf("%s: tier=%d, want %d", name, got, want)
		}
	}
	if LookupTier("does_not_exist") != -1 {
		t.Errorf("unknown command should have tier -1")
	}
}

func TestCommandsForTier_Projection(t *testing.T) {
	for max := TierObserve; max <= TierDanger; max++ {
		names := CommandsForTier(max)
		if !sort.StringsAreSorted(names) {
			t.Fatalf("tier %d: names not sorted: %v", max, names)
		}
		// Exactly the commands at or below max, no more, no fewer.
		want := 0
		for _, c := range commands {
			if c.Tier <= max {
				want++
			}
		}
		if len(names) != want {
			t.Fatalf("tier %d: got %d commands, want %d", max, len(names), want)
		}
		for _, name := range names {
			if commands[name].Tier > max {
				t.Fatalf("tier %d: %s leaked (tier %d)", max, name, commands[name].Tier)
			}
		}
	}
}

func TestCommandsForTier_Contents(t *testing.T) {
	has := func(names []string, want string) bool {
		for _, n := range names {
			if n == want {
				return true
			}
		}
		return false
	}

	input := CommandsForTier(TierInput)
	if !has(input, "click") || !has(input, "screenshot") || !has(input, "wait_for") {
		t.Fatalf("tier 1 projection missing expected commands: %v", input)
	}
	if has(input, "set_property") || has(input, "call_method") || has(input, "eval") {
		t.Fatalf("tier 1 projection leaked control/danger commands: %v", input)
	}

	control := CommandsForTier(TierControl)
	if !has(control, "set_property") || !has(control, "call_method") {
		t.Fatalf("tier 2 projection missing control commands: %v", control)
	}
	if has(control, "eval") {
		t.Fatalf("tier 2 projection leaked eval: %v", control)
	}
}

func TestClampTier(t *testing.T) {
	if ClampTier(-5) != TierObserve || ClampTier(99) != TierDanger || ClampTier(2) != TierControl {
		t.Fatalf("clamp misbehaving")
	}
}

func TestAsyncFlag(t *testing.T) {
	c, ok := Lookup("wait_for")
	if !ok || !c.Async {
		t.Fatalf("wait_for must be async")
	}
	if c, _ := Lookup("ping"); c.Async {
		t.Fatalf("ping must not be async")
	}
}
