package main

import "testing"

func TestJobCommandsRegistered(t *testing.T) {
	want := []string{"caps", "strata", "neutrl", "jupiter", "apyreport"}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q is not registered", name)
		}
	}
}
