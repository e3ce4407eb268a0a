package main

import (
	"bytes"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"transfer", "balance", "bench"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %q, got %v (err %v)", name, cmd, err)
		}
	}
}

func TestTransferCmd_RequiresFlags(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"transfer", "--sender", "user1"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected missing flag error")
	}
}

func TestBalanceCmd_RequiresAccount(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"balance"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected argument error")
	}
}
