package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	connStr := "postgres://menuboard@localhost:5432/menuboard?sslmode=disable"
	if err := SetConnectionString(connStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}
	got, err := ConnectionString()
	if err != nil {
		t.Fatalf("ConnectionString() failed: %v", err)
	}
	if got != connStr {
		t.Errorf("ConnectionString() = %q, want %q", got, connStr)
	}
}

func TestSetConnectionStringEmpty(t *testing.T) {
	gokeyring.MockInit()
	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
}

func TestDeleteConnectionString(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString("host=localhost dbname=menuboard"); err != nil {
		t.Fatal(err)
	}
	if err := DeleteConnectionString(); err != nil {
		t.Fatalf("DeleteConnectionString() failed: %v", err)
	}
	if _, err := ConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete, ConnectionString() error = %v, want ErrNotFound", err)
	}
	if err := DeleteConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestResolve(t *testing.T) {
	gokeyring.MockInit()
	_ = DeleteConnectionString()

	if got, src := Resolve(""); got != "" || src != SourceNone {
		t.Errorf("Resolve(\"\") with empty keyring = %q, %s", got, src)
	}

	stored := "postgres://menuboard@db:5432/menuboard"
	if err := SetConnectionString(stored); err != nil {
		t.Fatal(err)
	}
	if got, src := Resolve(""); got != stored || src != SourceKeyring {
		t.Errorf("Resolve(\"\") = %q, %s; want keyring value", got, src)
	}
	if got, src := Resolve("host=other"); got != "host=other" || src != SourceExplicit {
		t.Errorf("explicit value should win, got %q, %s", got, src)
	}
}
