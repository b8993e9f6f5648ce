package scanner

import (
	"context"
	"strings"
	"testing"

	"HagwonScanner/internal/domain"
)

type fakeScanner struct {
	name string
}

func (f *fakeScanner) Name() string { return f.name }

func (f *fakeScanner) Scan(ctx context.Context, req Request) ([]domain.Record, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&fakeScanner{name: "yonhap"})

	scanner, err := registry.Resolve("yonhap")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if scanner.Name() != "yonhap" {
		t.Fatalf("unexpected scanner: %s", scanner.Name())
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	_, err := registry.Resolve("chosun")
	if err == nil {
		t.Fatal("expected error for unregistered scanner")
	}
	if !strings.Contains(err.Error(), "chosun") {
		t.Fatalf("error should name the scanner: %v", err)
	}
}

func TestRegistryReplace(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	first := &fakeScanner{name: "sbs"}
	second := &fakeScanner{name: "sbs"}
	registry.Register(first)
	registry.Register(second)

	scanner, err := registry.Resolve("sbs")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if scanner != second {
		t.Fatal("Register should replace an existing scanner")
	}
}
